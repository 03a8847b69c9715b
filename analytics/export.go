package analytics

import (
	"encoding/json"
	"fmt"
	"strings"

	"pulse/api/models"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"

	pageViewsDivider = "=== PAGE VIEWS ==="
	eventsDivider    = "=== EVENTS ==="
)

// NormalizeFormat maps anything other than "json" to "csv".
func NormalizeFormat(format string) string {
	if strings.EqualFold(format, FormatJSON) {
		return FormatJSON
	}
	return FormatCSV
}

// ExportFilename is the attachment name for a range token and format.
func ExportFilename(rangeToken, format string) string {
	return fmt.Sprintf("analytics-%s.%s", rangeToken, NormalizeFormat(format))
}

// FormatExport serializes raw rows and returns the body with its content type.
func FormatExport(records models.ExportRecords, format string) ([]byte, string, error) {
	if records.PageViews == nil {
		records.PageViews = []models.PageView{}
	}
	if records.Events == nil {
		records.Events = []models.Event{}
	}

	if NormalizeFormat(format) == FormatJSON {
		body, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode export: %w", err)
		}
		return body, "application/json", nil
	}
	return []byte(toCSV(records)), "text/csv; charset=utf-8", nil
}

// toCSV writes two sections. Every value is quoted, which encoding/csv
// cannot be told to do.
func toCSV(records models.ExportRecords) string {
	var lines []string

	lines = append(lines, pageViewsDivider)
	if len(records.PageViews) > 0 {
		lines = append(lines, strings.Join(models.PageViewColumns, ","))
		for _, pv := range records.PageViews {
			lines = append(lines, quoteRow(pv.Values()))
		}
	}

	lines = append(lines, "", eventsDivider)
	if len(records.Events) > 0 {
		lines = append(lines, strings.Join(models.EventColumns, ","))
		for _, ev := range records.Events {
			lines = append(lines, quoteRow(ev.Values()))
		}
	}

	return strings.Join(lines, "\n")
}

func quoteRow(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
