package taskhub

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// ============================================================================
// Severity
// ============================================================================

// Severity selects the visual tone of a transient alert.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps a wire tone tag to a Severity, defaulting to info.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return Severity(s)
	default:
		return SeverityInfo
	}
}

// ============================================================================
// Alert
// ============================================================================

// Alert is one transient, non-persisted user notification. ID is a
// correlation id assigned client-side; it never reaches the backend.
type Alert struct {
	ID       string
	Severity Severity
	Title    string
	Body     string
	Target   string
	Sender   string
	At       time.Time
}

// NewAlert builds an alert with a fresh correlation id.
func NewAlert(severity Severity, title, body string) Alert {
	return Alert{
		ID:       uuid.NewString(),
		Severity: severity,
		Title:    title,
		Body:     body,
		At:       time.Now(),
	}
}

// AlertSink receives transient alerts. Implementations must not block
// for long and must never panic; each alert is delivered at most once.
type AlertSink interface {
	Notify(alert Alert)
}

// NopAlerter discards every alert. Useful for headless consumers.
type NopAlerter struct{}

func (NopAlerter) Notify(Alert) {}

// ============================================================================
// TerminalAlerter
// ============================================================================

var (
	alertSuccessStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	alertErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	alertWarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	alertInfoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B949E"))
	alertBodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8E6E3"))
	alertDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func severityStyle(s Severity) lipgloss.Style {
	switch s {
	case SeveritySuccess:
		return alertSuccessStyle
	case SeverityError:
		return alertErrorStyle
	case SeverityWarning:
		return alertWarningStyle
	default:
		return alertInfoStyle
	}
}

// TerminalAlerter renders alerts as single styled lines on a writer.
// Write failures are swallowed: alerts are best-effort by contract.
type TerminalAlerter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalAlerter creates an alerter writing to out.
func NewTerminalAlerter(out io.Writer) *TerminalAlerter {
	return &TerminalAlerter{out: out}
}

func (t *TerminalAlerter) Notify(alert Alert) {
	tag := severityStyle(alert.Severity).Render(fmt.Sprintf("[%s]", alert.Severity))
	line := fmt.Sprintf("%s %s %s",
		alertDimStyle.Render(alert.At.Format("15:04:05")),
		tag,
		alertBodyStyle.Render(alert.Title),
	)
	if alert.Body != "" {
		line += alertDimStyle.Render(": " + alert.Body)
	}

	t.mu.Lock()
	fmt.Fprintln(t.out, line)
	t.mu.Unlock()
}
