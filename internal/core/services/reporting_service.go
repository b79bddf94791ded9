package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"telequal/internal/core/domain"
	"telequal/internal/core/ports"
	"telequal/pkg/cache"

	"go.uber.org/zap"
)

const commonIssueLimit = 10

// ReportingFacade serves on-demand session reports and time-bounded
// aggregate statistics from the report store. Aggregate queries are
// cached briefly since dashboards poll them.
type ReportingFacade struct {
	reports    ports.ReportRepository
	aggregator ports.SessionService
	metrics    ports.MetricsSink
	logger     *zap.SugaredLogger

	queryTimeout time.Duration
	statsCache   *cache.Cache
}

func NewReportingFacade(
	reports ports.ReportRepository,
	aggregator ports.SessionService,
	queryTimeout time.Duration,
	cacheTTL time.Duration,
	logger *zap.SugaredLogger,
) *ReportingFacade {
	return &ReportingFacade{
		reports:      reports,
		aggregator:   aggregator,
		queryTimeout: queryTimeout,
		statsCache:   cache.NewCache(cacheTTL),
		logger:       logger,
	}
}

// AttachMetrics wires the observability sink.
func (f *ReportingFacade) AttachMetrics(metrics ports.MetricsSink) {
	f.metrics = metrics
}

// GetSessionReport returns the stored report for a session, or
// domain.ErrReportNotFound when none has been generated yet.
func (f *ReportingFacade) GetSessionReport(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error) {
	queryCtx, cancel := context.WithTimeout(ctx, f.queryTimeout)
	defer cancel()

	start := time.Now()
	report, err := f.reports.GetBySession(queryCtx, sessionID)
	if f.metrics != nil {
		f.metrics.RecordStoreOperation("report_get", time.Since(start).Seconds(), err)
	}
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			return nil, domain.ErrReportNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return report, nil
}

// GenerateSessionReport summarizes the session's samples and persists
// the resulting report. Regeneration stores a fresh report; the
// previously stored one is superseded, never mutated.
func (f *ReportingFacade) GenerateSessionReport(ctx context.Context, sessionID domain.SessionID) (*domain.SessionQualityReport, error) {
	report, err := f.aggregator.Summarize(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = f.reports.Save(ctx, report)
	if f.metrics != nil {
		f.metrics.RecordStoreOperation("report_save", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	f.logger.Infow("session report generated",
		"session_id", sessionID,
		"overall_quality", report.OverallQuality,
		"participants", len(report.Participants),
	)

	return report, nil
}

// GetAggregateStatistics computes totals, the top common issues and the
// per-day quality trend over every report whose start time falls inside
// [start, end]. An empty range yields zeros, not an error.
func (f *ReportingFacade) GetAggregateStatistics(ctx context.Context, start, end time.Time, participantID domain.ParticipantID) (*domain.AggregateStatistics, error) {
	cacheKey := fmt.Sprintf("stats:%d:%d:%s", start.Unix(), end.Unix(), participantID)
	if cached, ok := f.statsCache.Get(cacheKey); ok {
		if stats, ok := cached.(*domain.AggregateStatistics); ok {
			return stats, nil
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, f.queryTimeout)
	defer cancel()

	began := time.Now()
	reports, err := f.reports.FindByTimeRange(queryCtx, start, end)
	if f.metrics != nil {
		f.metrics.RecordStoreOperation("report_range", time.Since(began).Seconds(), err)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if participantID != "" {
		reports = filterByParticipant(reports, participantID)
	}

	stats := aggregateReports(reports)
	f.statsCache.Set(cacheKey, stats)

	return stats, nil
}

func filterByParticipant(reports []*domain.SessionQualityReport, participantID domain.ParticipantID) []*domain.SessionQualityReport {
	var filtered []*domain.SessionQualityReport
	for _, report := range reports {
		for _, p := range report.Participants {
			if p.ParticipantID == participantID {
				filtered = append(filtered, report)
				break
			}
		}
	}
	return filtered
}

func aggregateReports(reports []*domain.SessionQualityReport) *domain.AggregateStatistics {
	stats := &domain.AggregateStatistics{
		CommonIssues: []domain.IssueFrequency{},
		QualityTrend: []domain.TrendPoint{},
	}
	if len(reports) == 0 {
		return stats
	}

	stats.TotalSessions = len(reports)

	qualitySum := 0.0
	durationSum := 0.0
	issueCounts := make(map[string]int)
	daySums := make(map[string]float64)
	dayCounts := make(map[string]int)

	for _, report := range reports {
		qualitySum += report.OverallQuality
		durationSum += report.DurationSeconds
		for _, issue := range report.MajorIssues {
			issueCounts[issue]++
		}
		day := report.StartTime.Format("2006-01-02")
		daySums[day] += report.OverallQuality
		dayCounts[day]++
	}

	stats.AverageQuality = qualitySum / float64(len(reports))
	stats.AverageDurationSeconds = durationSum / float64(len(reports))

	for issue, count := range issueCounts {
		stats.CommonIssues = append(stats.CommonIssues, domain.IssueFrequency{Issue: issue, Frequency: count})
	}
	sort.Slice(stats.CommonIssues, func(i, j int) bool {
		if stats.CommonIssues[i].Frequency != stats.CommonIssues[j].Frequency {
			return stats.CommonIssues[i].Frequency > stats.CommonIssues[j].Frequency
		}
		return stats.CommonIssues[i].Issue < stats.CommonIssues[j].Issue
	})
	if len(stats.CommonIssues) > commonIssueLimit {
		stats.CommonIssues = stats.CommonIssues[:commonIssueLimit]
	}

	for day, sum := range daySums {
		stats.QualityTrend = append(stats.QualityTrend, domain.TrendPoint{
			Date:    day,
			Quality: sum / float64(dayCounts[day]),
		})
	}
	sort.Slice(stats.QualityTrend, func(i, j int) bool {
		return stats.QualityTrend[i].Date < stats.QualityTrend[j].Date
	})

	return stats
}

// Close releases the cache cleanup goroutine.
func (f *ReportingFacade) Close() {
	f.statsCache.Stop()
}
