// Package render turns stored entries into the list view shown by the web
// UI and the terminal: a summary line plus one card per entry.
package render

import (
	"fmt"
	"sort"

	"github.com/mdc-app/mdc/internal/entry"
)

// NoPace is shown when minutes or distance is zero.
const NoPace = "—"

var intensityEmoji = map[string]string{
	"baja":  "🟢",
	"media": "🟡",
	"alta":  "🔴",
}

var moodEmoji = map[string]string{
	"feliz":      "😀",
	"cansada":    "😣",
	"tranquila":  "😌",
	"ansiosa":    "😬",
	"frustrada":  "😕",
	"conenergia": "⚡",
}

const (
	fallbackIntensityEmoji = "🏁"
	fallbackMoodEmoji      = "🙂"
)

// Summary aggregates the whole list.
type Summary struct {
	TotalKm float64 `json:"total_km"`
	Count   int     `json:"count"`
}

// TotalKmText is the total with two decimals.
func (s Summary) TotalKmText() string { return fmt.Sprintf("%.2f", s.TotalKm) }

// Chip is a labelled badge with a CSS class and an emoji.
type Chip struct {
	Class string `json:"class"`
	Emoji string `json:"emoji,omitempty"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// Item is one rendered entry.
type Item struct {
	ID             entry.ID `json:"id"`
	Title          string   `json:"title"`
	Date           string   `json:"fecha"`
	Duration       string   `json:"duracion"`
	Pace           string   `json:"pace"`
	Intensity      Chip     `json:"intensidad"`
	Mood           Chip     `json:"emociones"`
	Cycle          *Chip    `json:"ciclo,omitempty"`
	Comments       string   `json:"comentarios"`
	PreWorkoutMeal string   `json:"alimentacion,omitempty"`

	Entry entry.Entry `json:"-"`
}

// List is the full view model.
type List struct {
	Summary Summary `json:"summary"`
	Items   []Item  `json:"items"`
}

// Empty reports whether there is nothing to show.
func (l List) Empty() bool { return len(l.Items) == 0 }

// Build sorts entries by date ascending and renders each one. The input
// slice is not modified.
func Build(entries []entry.Entry) List {
	sorted := make([]entry.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	list := List{Items: make([]Item, 0, len(sorted))}
	for _, e := range sorted {
		list.Summary.TotalKm += e.Distance.Float()
		list.Items = append(list.Items, BuildItem(e))
	}
	list.Summary.Count = len(sorted)
	return list
}

// BuildItem renders a single entry.
func BuildItem(e entry.Entry) Item {
	km := e.Distance.Float()

	duration := orDash(e.Duration)
	intensity := orDash(e.Intensity)
	mood := orDash(e.Mood)

	item := Item{
		ID:             e.ID,
		Title:          fmt.Sprintf("%s · %.2f km", orDash(e.Type), km),
		Date:           entry.FormatDate(e.Date),
		Duration:       duration,
		Pace:           paceText(e.Duration, km),
		Intensity:      chip(intensity, "Intensidad", intensityEmoji, fallbackIntensityEmoji),
		Mood:           chip(mood, "Estado de ánimo", moodEmoji, fallbackMoodEmoji),
		Comments:       e.Comments,
		PreWorkoutMeal: e.PreWorkoutMeal,
		Entry:          e,
	}
	if e.CyclePhase != "" {
		item.Cycle = &Chip{
			Class: entry.ClassName(e.CyclePhase),
			Label: e.CyclePhase,
			Title: "Fase del ciclo",
		}
	}
	return item
}

func paceText(duration string, km float64) string {
	mins := entry.ParseDurationMinutes(duration)
	if mins <= 0 || km <= 0 {
		return NoPace
	}
	return entry.Pace(mins, km) + " min/km"
}

func chip(label, title string, emojis map[string]string, fallback string) Chip {
	class := entry.ClassName(label)
	emoji, ok := emojis[class]
	if !ok {
		emoji = fallback
	}
	return Chip{Class: class, Emoji: emoji, Label: label, Title: title}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
