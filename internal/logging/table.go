// This file contains the table formatting used for before/after metric
// comparisons in reports and console output.

package logging

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow represents a single row in a comparison table.
// Values are pre-formatted strings so rows can mix precisions.
type MetricRow struct {
	Label          string   // Row label, e.g., "Peak Level"
	Values         []string // One value per column
	Unit           string   // Unit suffix, e.g., "dBFS", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns for metric comparison
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Before", "After"]
	Rows    []MetricRow // Data rows
}

// NewMetricTable creates an empty table with the given column headers
func NewMetricTable(headers ...string) *MetricTable {
	return &MetricTable{Headers: headers}
}

// String renders the table. Labels are left-aligned, values right-aligned
// within their column, units follow the last value column, and the
// interpretation column appears only when some row has one.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth, unitWidth, valueWidths, hasInterpretation := t.widths()

	var sb strings.Builder

	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		fmt.Fprintf(&sb, "%*s  ", valueWidths[i], header)
	}
	if unitWidth > 0 {
		sb.WriteString(strings.Repeat(" ", unitWidth+1))
	}
	if hasInterpretation {
		sb.WriteString("Interpretation")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&sb, "%-*s  ", labelWidth, row.Label)
		for i := range t.Headers {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			fmt.Fprintf(&sb, "%*s  ", valueWidths[i], val)
		}
		if unitWidth > 0 {
			fmt.Fprintf(&sb, "%-*s ", unitWidth, row.Unit)
		}
		if hasInterpretation {
			sb.WriteString(row.Interpretation)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (t *MetricTable) widths() (label, unit int, values []int, interpretation bool) {
	values = make([]int, len(t.Headers))
	for i, header := range t.Headers {
		values[i] = len(header)
	}

	for _, row := range t.Rows {
		label = max(label, len(row.Label))
		unit = max(unit, len(row.Unit))
		if row.Interpretation != "" {
			interpretation = true
		}
		for i, val := range row.Values {
			if i < len(values) {
				values[i] = max(values[i], len(val))
			}
		}
	}
	return label, unit, values, interpretation
}

// AddRow adds a row to the table with pre-formatted values
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddOptionalRow adds a row of optional measurements; nil displays as "-"
func (t *MetricTable) AddOptionalRow(label string, values []*float64, decimals int, unit string, interpretation string) {
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = formatOptional(v, decimals)
	}
	t.AddRow(label, formatted, unit, interpretation)
}

// =============================================================================
// Metric Formatting Helpers
// =============================================================================

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS level below which a signal is treated as
// digital silence. The engine reports -inf for true digital zero.
const DigitalSilenceThreshold = -120.0

func isDigitalSilence(value float64) bool {
	return math.IsInf(value, -1) || value <= DigitalSilenceThreshold
}

// formatMetric formats a numeric value with the given precision.
// Very small non-zero values use scientific notation; NaN and Inf are missing.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricDB formats a dB level, showing "< -120" at the measurement floor
func formatMetricDB(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 1) {
		return MissingValue
	}
	if isDigitalSilence(value) {
		return "< -120"
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricSigned formats a value with an explicit sign, e.g. "+12" for a score change
func formatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// formatMetricWithUnit returns "value unit", or just the value when unit is empty
func formatMetricWithUnit(value float64, decimals int, unit string) string {
	formatted := formatMetric(value, decimals)
	if formatted == MissingValue || unit == "" {
		return formatted
	}
	return formatted + " " + unit
}

// formatOptional formats an optional measurement
func formatOptional(v *float64, decimals int) string {
	if v == nil {
		return MissingValue
	}
	return formatMetric(*v, decimals)
}

// formatOptionalDB formats an optional dB level
func formatOptionalDB(v *float64, decimals int) string {
	if v == nil {
		return MissingValue
	}
	return formatMetricDB(*v, decimals)
}

// formatOptionalPercent formats an optional 0-1 ratio as a percentage
func formatOptionalPercent(v *float64) string {
	if v == nil {
		return MissingValue
	}
	return formatMetric(*v*100, 1)
}
