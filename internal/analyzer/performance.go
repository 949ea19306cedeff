package analyzer

import "github.com/ultronhq/ultron/internal/models"

// ExtractPerformance derives performance metrics from a fetch. It is total:
// every FetchResult yields metrics. PageSize is a lower bound when the body
// was truncated.
func ExtractPerformance(res models.FetchResult) models.PerformanceMetrics {
	elapsed := res.Elapsed.Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return models.PerformanceMetrics{
		TotalTime:  elapsed,
		PageSize:   int64(len(res.Body)),
		StatusCode: res.StatusCode,
		Truncated:  res.Truncated,
	}
}
