package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/verify"
)

// Styles contains the lipgloss styles used by the CLI renderers
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")), // Cyan
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(1, 2),
	}
}

// Renderer turns reports and summaries into styled terminal output
type Renderer struct {
	styles Styles
}

// New creates a renderer with default styles
func New() *Renderer {
	return &Renderer{styles: DefaultStyles()}
}

// Summary renders a bundle summary card
func (r *Renderer) Summary(s bundle.Summary) string {
	var b strings.Builder

	b.WriteString(r.styles.Title.Render(s.Title))
	b.WriteString("\n\n")

	rows := []struct{ label, val string }{
		{"ID", s.ID},
		{"Checksum", s.Checksum},
		{"Created", s.CreatedAt.Format("2006-01-02 15:04:05 MST")},
		{"Sealed", s.SealedAt.Format("2006-01-02 15:04:05 MST")},
		{"Datasets", fmt.Sprintf("%d", s.Datasets)},
		{"Pipeline steps", fmt.Sprintf("%d", s.Steps)},
		{"Decisions", fmt.Sprintf("%d", s.Decisions)},
		{"Captured modules", fmt.Sprintf("%d", s.Modules)},
		{"Seeded modules", fmt.Sprintf("%d", s.SeedModules)},
		{"Environment", fmt.Sprintf("%s %s/%s (Go %s)",
			s.Environment.EngineVersion, s.Environment.OS,
			s.Environment.Arch, s.Environment.GoVersion)},
	}
	for _, row := range rows {
		b.WriteString(r.styles.Label.Render(fmt.Sprintf("%-18s", row.label)))
		b.WriteString(r.styles.Value.Render(row.val))
		b.WriteString("\n")
	}

	return r.styles.Border.Render(strings.TrimRight(b.String(), "\n"))
}

// Report renders a verification report with per-check detail
func (r *Renderer) Report(rep *verify.Report) string {
	var b strings.Builder

	b.WriteString(r.styles.Title.Render("Verification: " + rep.Title))
	b.WriteString("\n")
	b.WriteString(r.styles.Muted.Render("bundle " + rep.BundleID))
	b.WriteString("\n\n")

	for _, check := range rep.Checks {
		b.WriteString(r.badge(check.Passed))
		b.WriteString(" ")
		b.WriteString(check.Name)
		b.WriteString("\n")

		for _, d := range check.Details {
			b.WriteString(r.styles.Error.Render("    ✗ "))
			b.WriteString(r.styles.Muted.Render(d))
			b.WriteString("\n")
		}
		for _, w := range check.Warnings {
			b.WriteString(r.styles.Warning.Render("    ! "))
			b.WriteString(r.styles.Muted.Render(w))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if rep.Passed {
		b.WriteString(r.styles.Success.Render("✓ verification passed"))
	} else {
		b.WriteString(r.styles.Error.Render("✗ verification failed"))
	}
	b.WriteString("\n")

	return b.String()
}

func (r *Renderer) badge(passed bool) string {
	if passed {
		return r.styles.Success.Render("[PASS]")
	}
	return r.styles.Error.Render("[FAIL]")
}
