package extract

import (
	"strings"

	"filingest/internal/filing"
)

// CleanMetric normalizes an extracted row in place and reports whether it
// is worth keeping. The pipeline treats rows as opaque beyond this point.
func CleanMetric(m *filing.Metric) bool {
	if m == nil {
		return false
	}

	m.Metric = collapse(strings.ReplaceAll(m.Metric, `"`, ""))
	m.OriginalValue = collapse(m.OriginalValue)
	m.CleanedValue = collapse(m.CleanedValue)
	m.TableSection = collapse(m.TableSection)
	m.Period = collapse(m.Period)
	m.Unit = collapse(m.Unit)
	m.Denomination = collapse(m.Denomination)
	m.Notes = strings.TrimSpace(m.Notes)
	m.PageNumber = collapse(m.PageNumber)

	if m.Metric == "" || m.OriginalValue == "" {
		return false
	}

	switch {
	case strings.EqualFold(m.MetricType, "guidance"):
		m.MetricType = "Guidance"
	default:
		m.MetricType = "Results"
	}
	return true
}

// collapse trims and squeezes internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
