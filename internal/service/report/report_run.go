package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/recruitly/screening-engine/internal/aggregation"
	"github.com/recruitly/screening-engine/internal/service/report/types"
	"github.com/recruitly/screening-engine/internal/store/model"
)

type StandardRunProcessor struct{}

func NewStandardRunProcessor() *StandardRunProcessor {
	return &StandardRunProcessor{}
}

func (p *StandardRunProcessor) ProcessRun(job *model.JobOpening, run *model.ScreenRun) (*types.ReportData, error) {
	if run == nil {
		return nil, fmt.Errorf("run is required")
	}

	data := &types.ReportData{
		Job:       job,
		Run:       run,
		Generated: time.Now(),
		Summary: types.RunSummary{
			Total:       run.Total,
			Processed:   run.Processed,
			ScreenedIn:  run.ScreenedIn,
			ScreenedOut: run.ScreenedOut,
		},
	}

	fitLevels := map[string]int{}
	errorKinds := map[string]int{}
	var scoreSum float64
	var scored int

	// highest scores first, failures last
	results := append([]model.ScreenRunResult(nil), run.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Score, results[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	for _, r := range results {
		row := types.ResultRow{
			ResumeID:      r.ResumeID.String(),
			CandidateID:   r.CandidateID,
			CandidateName: r.CandidateName,
			FitLevel:      r.FitLevel,
			Status:        r.Status,
			MatchedSkills: joinList(r.MatchedSkills),
			MissingSkills: joinList(r.MissingSkills),
			RedFlags:      joinList(r.RedFlags),
			StrongSignals: joinList(r.StrongSignals),
			Concerns:      joinList(r.Concerns),
		}
		if r.Score != nil {
			row.Score = fmt.Sprintf("%.1f", *r.Score)
			scoreSum += *r.Score
			scored++
			fitLevels[r.FitLevel]++
		}
		if r.Failed() {
			row.ErrorKind = *r.ErrorKind
			if r.Error != nil {
				row.Error = *r.Error
			}
			errorKinds[*r.ErrorKind]++
			data.Summary.Failed++
		}
		data.Rows = append(data.Rows, row)
	}

	if scored > 0 {
		data.Summary.AverageScore = scoreSum / float64(scored)
	}
	for _, level := range []string{aggregation.FitStrong, aggregation.FitModerate, aggregation.FitWeak, aggregation.FitPoor} {
		data.Summary.ByFitLevel = append(data.Summary.ByFitLevel, types.Bucket{Label: level, Count: fitLevels[level]})
	}
	data.Summary.ByErrorKind = sortedBuckets(errorKinds)

	return data, nil
}

func joinList(l model.StringList) string {
	return strings.Join(l.Data, ", ")
}

func sortedBuckets(m map[string]int) []types.Bucket {
	buckets := make([]types.Bucket, 0, len(m))
	for k, v := range m {
		buckets = append(buckets, types.Bucket{Label: k, Count: v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}
