package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Origin  lipgloss.Style
	Summary lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Card    lipgloss.Style
}

// DefaultStyles returns the styles used by `mdc list --format text`.
func DefaultStyles() Styles {
	return Styles{
		Origin: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7aa2f7")).
			Italic(true),
		Summary: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0caf5")).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0caf5")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b4261")).
			Padding(0, 1),
	}
}

// PlainStyles renders without colors or borders.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Origin:  plain,
		Summary: plain,
		Title:   plain,
		Label:   plain,
		Value:   plain,
		Muted:   plain,
		Card:    plain,
	}
}

// OriginLine is the banner naming where the data came from.
func OriginLine(label string) string {
	return "Origen de datos: " + label
}

// Text writes the list to w with the default styles.
func Text(w io.Writer, list List) error {
	return TextWith(w, list, DefaultStyles())
}

// TextWith writes the list to w using st.
func TextWith(w io.Writer, list List, st Styles) error {
	if list.Empty() {
		_, err := fmt.Fprintln(w, st.Muted.Render("Todavía no hay entradas."))
		return err
	}

	summary := fmt.Sprintf("Total km: %s · Entradas: %d", list.Summary.TotalKmText(), list.Summary.Count)
	if _, err := fmt.Fprintln(w, st.Summary.Render(summary)); err != nil {
		return err
	}

	for _, item := range list.Items {
		if _, err := fmt.Fprintln(w, st.Card.Render(card(item, st))); err != nil {
			return err
		}
	}
	return nil
}

func card(item Item, st Styles) string {
	chips := []string{chipText(item.Intensity), chipText(item.Mood)}
	if item.Cycle != nil {
		chips = append(chips, item.Cycle.Label)
	}

	lines := []string{
		st.Title.Render(item.Title) + "  " + st.Muted.Render(strings.Join(chips, "  ")),
		kv(st, "Fecha", item.Date) + "  " + kv(st, "Duración", item.Duration) + "  " + kv(st, "Pace", item.Pace),
		kv(st, "Comentarios", item.Comments),
	}
	if item.PreWorkoutMeal != "" {
		lines = append(lines, kv(st, "Alimentación", item.PreWorkoutMeal))
	}
	lines = append(lines, st.Muted.Render("id: "+item.ID.String()))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func chipText(c Chip) string {
	return c.Emoji + " " + c.Label
}

func kv(st Styles, label, value string) string {
	return st.Label.Render(label+":") + " " + st.Value.Render(value)
}
