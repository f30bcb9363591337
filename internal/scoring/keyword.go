package scoring

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/thoas/go-funk"
)

var yearsRegex = regexp.MustCompile(`(?i)(\d{1,2})\+?\s*(?:years?|yrs?)`)

// KeywordClient scores resumes locally by matching skills and years of
// experience in the text. It needs no model and backs dry runs.
// Semantic, metrics and complexity are never produced.
type KeywordClient struct{}

func NewKeywordClient() *KeywordClient {
	return &KeywordClient{}
}

func (c *KeywordClient) Score(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.ToLower(req.ResumeText)
	required := normalizeSkills(req.RequiredSkills)
	niceToHave := normalizeSkills(req.NiceToHaveSkills)

	matched := funk.FilterString(required, func(s string) bool { return strings.Contains(text, s) })
	missing, _ := funk.DifferenceString(required, matched)
	bonus := funk.FilterString(niceToHave, func(s string) bool { return strings.Contains(text, s) })

	result := &Result{
		MatchedSkills: matched,
		MissingSkills: missing,
	}
	if len(required) > 0 {
		v := 100 * float64(len(matched)) / float64(len(required))
		if len(niceToHave) > 0 {
			v = math.Min(100, v+10*float64(len(bonus))/float64(len(niceToHave)))
		}
		result.SubScores.SkillMatch = &v
	}

	if want, ok := parseYears(req.ExperienceRequirement); ok && want > 0 {
		if have, ok := parseYears(req.ResumeText); ok {
			v := math.Min(100, 100*float64(have)/float64(want))
			result.SubScores.Experience = &v
			if have >= want {
				result.StrongSignals = append(result.StrongSignals, "meets experience requirement")
			} else {
				result.Concerns = append(result.Concerns, "below required experience")
			}
		}
	}

	if len(missing) > 0 && len(matched) == 0 {
		result.RedFlags = append(result.RedFlags, "no required skill found")
	}
	return result, nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return funk.UniqString(out)
}

// parseYears returns the largest "N years" mention in s.
func parseYears(s string) (int, bool) {
	best, found := 0, false
	for _, m := range yearsRegex.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}
