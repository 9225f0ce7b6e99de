// Package report formats progression models for terminal output.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/claude/runplan/internal/chart"
	"github.com/claude/runplan/internal/progression"
)

type Theme struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
	Card   lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:  lipgloss.NewStyle().Bold(true),
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Cell:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Faint(true),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
	}
}

// PlainTheme renders without colour or borders, for piping and tests.
func PlainTheme() Theme {
	return Theme{
		Title:  lipgloss.NewStyle(),
		Header: lipgloss.NewStyle(),
		Cell:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle(),
		Card:   lipgloss.NewStyle(),
	}
}

const colWidth = 12

// Table renders weekly mileage (and optionally the rate of change) for
// weeks 0..weeks-1.
func Table(m progression.Model, weeks int, includeRate bool, th Theme) (string, error) {
	s, err := chart.Weekly(m, weeks, includeRate)
	if err != nil {
		return "", err
	}

	cell := func(st lipgloss.Style, v string) string {
		return st.Width(colWidth).Align(lipgloss.Right).Render(v)
	}

	header := []string{cell(th.Header, "Week"), cell(th.Header, "Mileage")}
	if includeRate {
		header = append(header, cell(th.Header, "Rate"))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	rows = append(rows, th.Muted.Render(strings.Repeat("─", colWidth*len(header))))

	for i, w := range s.Weeks {
		cols := []string{
			cell(th.Cell, fmt.Sprintf("%d", int(w))),
			cell(th.Cell, fmt.Sprintf("%.2f", s.Mileages[i])),
		}
		if includeRate {
			cols = append(cols, cell(th.Cell, fmt.Sprintf("%.4f", s.Rates[i])))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...), nil
}

// Summary renders the model's equation, parameters and milestones in a card.
func Summary(m progression.Model, weeks int, th Theme) string {
	p := m.Parameters()
	var b strings.Builder
	b.WriteString(th.Title.Render(fmt.Sprintf("%s progression", m.Kind())))
	b.WriteString("\n")
	b.WriteString(th.Muted.Render(m.Equation()))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "target   %.2f\nstarting %.2f\na        %g\nb        %g", p.Target, p.Starting, p.A, p.B)
	if plateau, ok := progression.PlateauWeek(m); ok {
		fmt.Fprintf(&b, "\nplateau  week %.2f", plateau)
	}

	ms := chart.Milestones(m, float64(weeks))
	if len(ms) > 0 {
		b.WriteString("\n\n")
		b.WriteString(th.Title.Render("Milestones"))
		for _, x := range ms {
			fmt.Fprintf(&b, "\n%3.0f%%  %6.2f mi  week %.1f", x.Fraction*100, x.Mileage, x.Week)
		}
	}
	return th.Card.Render(b.String())
}
