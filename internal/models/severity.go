package models

import "strings"

// Severity classifies notifications and activity entries for styling.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps free-form input to a known severity. Unknown values fall
// back to info. "danger" is accepted as an alias for error.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return SeveritySuccess
	case "warning", "warn":
		return SeverityWarning
	case "error", "danger":
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Normalize returns s when it is a known severity, otherwise info.
func (s Severity) Normalize() Severity {
	return ParseSeverity(string(s))
}

// Icon returns the glyph used as a prefix in feed lines.
func (s Severity) Icon() string {
	switch s.Normalize() {
	case SeveritySuccess:
		return "✅"
	case SeverityWarning:
		return "⚠️"
	case SeverityError:
		return "❌"
	default:
		return "ℹ️"
	}
}

// Color returns the accent color for the severity.
func (s Severity) Color() string {
	switch s.Normalize() {
	case SeveritySuccess:
		return "#10b981"
	case SeverityWarning:
		return "#f59e0b"
	case SeverityError:
		return "#ef4444"
	default:
		return "#3b82f6"
	}
}
