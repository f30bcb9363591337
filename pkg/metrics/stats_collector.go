package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/recruitly/screening-engine/internal/store"
	"go.uber.org/zap"
)

type screeningStatsCollector struct {
	store          store.Store
	jobsByStatus   *prometheus.Desc
	resumeByStatus *prometheus.Desc
	runsByStatus   *prometheus.Desc
}

// NewScreeningStatsCollector exposes the stored job, resume and run counts.
func NewScreeningStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_%s", screening, name)
	}

	return &screeningStatsCollector{
		store: s,
		jobsByStatus: prometheus.NewDesc(
			fqName("job_openings"),
			"Number of job openings by status.",
			[]string{"status"},
			prometheus.Labels{},
		),
		resumeByStatus: prometheus.NewDesc(
			fqName("resumes"),
			"Number of resumes by screening status.",
			[]string{"status"},
			prometheus.Labels{},
		),
		runsByStatus: prometheus.NewDesc(
			fqName("stored_runs"),
			"Number of stored screening runs by status.",
			[]string{"status"},
			prometheus.Labels{},
		),
	}
}

func (c *screeningStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobsByStatus
	ch <- c.resumeByStatus
	ch <- c.runsByStatus
}

// Collect implements Collector.
func (c *screeningStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.store.Statistics(context.Background())
	if err != nil {
		zap.S().Named("stats_collector").Errorf("failed to collect screening statistics: %s", err)
		return
	}

	for status, total := range stats.JobsByStatus {
		ch <- prometheus.MustNewConstMetric(c.jobsByStatus, prometheus.GaugeValue, float64(total), status)
	}
	for status, total := range stats.ResumesByStatus {
		ch <- prometheus.MustNewConstMetric(c.resumeByStatus, prometheus.GaugeValue, float64(total), status)
	}
	for status, total := range stats.RunsByStatus {
		ch <- prometheus.MustNewConstMetric(c.runsByStatus, prometheus.GaugeValue, float64(total), status)
	}
}
