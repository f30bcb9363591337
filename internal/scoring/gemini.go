package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

//go:embed prompt.md
var promptTemplate string

var ErrMalformedResponse = errors.New("malformed model response")

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Generator wraps the Google GenAI client for single prompt calls.
type Generator struct {
	client    *genai.Client
	modelName string
}

func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	return &Generator{client: client, modelName: model}, nil
}

func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}

	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

// GeminiClient asks a Gemini model for the five sub-scores.
type GeminiClient struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewGeminiClient(generator contentGenerator) *GeminiClient {
	return &GeminiClient{
		generator: generator,
		logger:    zap.L().Named("gemini_scoring"),
		maxLogLen: 200,
	}
}

func (c *GeminiClient) Score(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, NewError(KindInvalidInput, err)
	}
	c.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", truncate(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, classify(err)
	}
	c.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", truncate(raw, c.maxLogLen)),
	)

	result, err := parseResponse(raw)
	if err != nil {
		return nil, NewError(KindUnavailable, err)
	}
	return result, nil
}

func buildPrompt(req Request) (string, error) {
	job := map[string]any{
		"title":                 req.JobTitle,
		"description":           req.JobDescription,
		"requiredSkills":        req.RequiredSkills,
		"niceToHaveSkills":      req.NiceToHaveSkills,
		"experienceRequirement": req.ExperienceRequirement,
	}
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{JOB_JSON}}", string(jobJSON))
	prompt = strings.ReplaceAll(prompt, "{{RESUME_TEXT}}", req.ResumeText)
	return prompt, nil
}

func classify(err error) error {
	if se, ok := AsError(err); ok {
		return se
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusRequestTimeout || apiErr.Code == http.StatusGatewayTimeout:
			return NewError(KindTimeout, err)
		case apiErr.Code == http.StatusBadRequest:
			return NewError(KindInvalidInput, err)
		}
	}
	return NewError(KindUnavailable, err)
}

func parseResponse(raw string) (*Result, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	result := &Result{
		MatchedSkills: coerceStrings(data["matchedSkills"]),
		MissingSkills: coerceStrings(data["missingSkills"]),
		RedFlags:      coerceStrings(data["redFlags"]),
		StrongSignals: coerceStrings(data["strongSignals"]),
		Concerns:      coerceStrings(data["concerns"]),
	}

	fields := []struct {
		key string
		dst **float64
	}{
		{"semantic", &result.SubScores.Semantic},
		{"skillMatch", &result.SubScores.SkillMatch},
		{"experience", &result.SubScores.Experience},
		{"metrics", &result.SubScores.Metrics},
		{"complexity", &result.SubScores.Complexity},
	}
	for _, f := range fields {
		v, present, err := coerceScore(data[f.key])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, f.key, err)
		}
		if present {
			*f.dst = &v
		}
	}
	return result, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// coerceScore accepts numbers and numeric strings. Null and missing values are
// absent; anything outside [0,100] is an error.
func coerceScore(v any) (float64, bool, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		f = val
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" || strings.EqualFold(trimmed, "null") {
			return 0, false, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", val)
		}
		f = parsed
	default:
		return 0, false, fmt.Errorf("unexpected type %T", v)
	}
	if math.IsNaN(f) || f < 0 || f > 100 {
		return 0, false, fmt.Errorf("value %v outside [0,100]", f)
	}
	return f, true, nil
}

func coerceStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
