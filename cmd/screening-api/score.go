package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/recruitly/screening-engine/internal/aggregation"
	"github.com/recruitly/screening-engine/internal/config"
	"github.com/recruitly/screening-engine/internal/content"
	"github.com/recruitly/screening-engine/internal/scoring"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scoreTitle       string
	scoreDescription string
	scoreRequired    []string
	scoreNiceToHave  []string
	scoreExperience  string
	scoreProvider    string
)

// scoreCmd screens a single local resume file without touching the database.
var scoreCmd = &cobra.Command{
	Use:   "score FILE",
	Short: "Score one resume file against a job description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		cleanup := setupLogging(cfg)
		defer cleanup()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		text, err := content.Extract(args[0], data)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", args[0], err)
		}

		if scoreProvider != "" {
			cfg.Scoring.Provider = scoreProvider
		}
		scorer, err := newScorer(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		aggregator, err := newAggregator(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Screening.ScoringTimeout)
		defer cancel()

		result, err := scorer.Score(ctx, scoring.Request{
			JobTitle:              scoreTitle,
			JobDescription:        scoreDescription,
			RequiredSkills:        scoreRequired,
			NiceToHaveSkills:      scoreNiceToHave,
			ExperienceRequirement: scoreExperience,
			ResumeText:            text,
		})
		if err != nil {
			return err
		}

		outcome, err := aggregator.Aggregate(result.SubScores)
		if err != nil {
			zap.S().Named("score").Warnw("could not aggregate sub-scores", "error", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*scoring.Result
			Outcome *aggregation.Outcome `json:"outcome,omitempty"`
		}{
			Result:  result,
			Outcome: outcomeOrNil(outcome, err),
		})
	},
}

func outcomeOrNil(o aggregation.Outcome, err error) *aggregation.Outcome {
	if err != nil {
		return nil
	}
	return &o
}

func init() {
	scoreCmd.Flags().StringVar(&scoreTitle, "title", "", "Job title")
	scoreCmd.Flags().StringVar(&scoreDescription, "description", "", "Job description")
	scoreCmd.Flags().StringSliceVar(&scoreRequired, "skills", nil, "Required skills")
	scoreCmd.Flags().StringSliceVar(&scoreNiceToHave, "nice-to-have", nil, "Nice to have skills")
	scoreCmd.Flags().StringVar(&scoreExperience, "experience", "", "Experience requirement")
	scoreCmd.Flags().StringVar(&scoreProvider, "provider", "keyword", "Scoring provider: gemini or keyword")
}
