package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ultronhq/ultron/internal/insights"
	"github.com/ultronhq/ultron/internal/models"
)

var csvHeader = []string{
	"URL", "State", "StatusCode", "TotalTime", "PageSize", "Title", "MetaDescription",
	"H1Count", "ImagesWithoutAlt", "MissingSecurityHeaders", "Viewport",
	"Critical", "Warning", "Info", "Error",
}

func (r *Reporter) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, out := range r.outcomes {
		if err := cw.Write(csvRow(out)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(out models.Outcome) []string {
	row := make([]string, len(csvHeader))
	row[0] = out.URL
	row[1] = string(out.State)
	row[14] = out.ErrorMessage()

	res := out.Result
	if res == nil {
		return row
	}
	row[2] = strconv.Itoa(res.Performance.StatusCode)
	row[3] = strconv.FormatFloat(res.Performance.TotalTime, 'f', 3, 64)
	row[4] = strconv.FormatInt(res.Performance.PageSize, 10)
	row[5] = res.SEO.Title
	row[6] = res.SEO.MetaDescription
	row[7] = strconv.Itoa(len(res.SEO.H1Tags))
	row[8] = strconv.Itoa(res.SEO.ImagesWithoutAlt)
	row[9] = strings.Join(res.Security.Missing(), "|")
	row[10] = yesNo(res.Mobile.ViewportMeta)
	row[11] = strconv.Itoa(insights.Count(res.Insights, models.SeverityCritical))
	row[12] = strconv.Itoa(insights.Count(res.Insights, models.SeverityWarning))
	row[13] = strconv.Itoa(insights.Count(res.Insights, models.SeverityInfo))
	return row
}
