package entry

import (
	"strings"
)

const (
	annotationSeparator = " | "
	notesKey            = "Notas"
	intensityKey        = "Intensidad"
)

// ToAPI converts an entry into the shape the collection resource expects.
// The id is never sent; clima is always null.
func ToAPI(e Entry) Row {
	return Row{
		Date:           e.Date,
		Type:           e.Type,
		DistanceKm:     e.Distance,
		Duration:       e.Duration,
		Description:    EncodeDescription(e.Comments, e.Intensity),
		Weather:        nil,
		Sentiment:      nullable(e.Mood),
		CyclePhase:     nullable(e.CyclePhase),
		PreWorkoutMeal: nullable(e.PreWorkoutMeal),
	}
}

// FromAPI converts a row from the collection resource into an entry.
// Missing fields become zero values.
func FromAPI(r Row) Entry {
	id := r.ID
	if id == "" {
		id = r.LegacyID
	}

	distance := r.DistanceKm
	if distance == 0 && r.LegacyDistance != nil {
		distance = *r.LegacyDistance
	}

	comments, intensity := DecodeDescription(deref(r.Description))
	if intensity == "" {
		intensity = deref(r.Intensity)
	}

	return Entry{
		ID:             id,
		Date:           r.Date,
		Type:           r.Type,
		Distance:       distance,
		Duration:       r.Duration,
		Intensity:      intensity,
		Mood:           deref(r.Sentiment),
		Comments:       comments,
		CyclePhase:     deref(r.CyclePhase),
		PreWorkoutMeal: deref(r.PreWorkoutMeal),
	}
}

// FromAPIAll converts a list of rows, preserving order.
func FromAPIAll(rows []Row) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, FromAPI(r))
	}
	return entries
}

// EncodeDescription packs comments and intensity into the single
// descripcion column as "Notas: <c> | Intensidad: <i>". Empty parts are
// omitted; nil means neither was present.
func EncodeDescription(comments, intensity string) *string {
	var parts []string
	if c := strings.TrimSpace(comments); c != "" {
		parts = append(parts, notesKey+": "+c)
	}
	if i := strings.TrimSpace(intensity); i != "" {
		parts = append(parts, intensityKey+": "+i)
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, annotationSeparator)
	return &s
}

// DecodeDescription extracts comments and intensity from a descripcion
// value. Keys match case-insensitively and the first occurrence wins.
// Text before the first key counts as comments when there is no Notas
// segment, so plain descriptions written by other clients survive.
func DecodeDescription(desc string) (comments, intensity string) {
	if strings.TrimSpace(desc) == "" {
		return "", ""
	}

	var (
		leading   string
		hasNotes  bool
		hasIntens bool
	)
	for i, seg := range splitSegments(desc) {
		key, value, ok := annotationKey(seg)
		if !ok {
			if i == 0 {
				leading = strings.TrimSpace(seg)
			}
			continue
		}
		switch {
		case strings.EqualFold(key, notesKey) && !hasNotes:
			comments, hasNotes = value, true
		case strings.EqualFold(key, intensityKey) && !hasIntens:
			intensity, hasIntens = value, true
		}
	}
	if !hasNotes {
		comments = leading
	}
	return comments, intensity
}

// splitSegments splits on " | " only, then glues any piece that does not
// start a known key back onto the previous segment. A pipe without the
// surrounding spaces is always comment text.
func splitSegments(desc string) []string {
	pieces := strings.Split(desc, annotationSeparator)
	segs := make([]string, 0, len(pieces))
	for i, p := range pieces {
		if _, _, ok := annotationKey(p); i == 0 || ok {
			segs = append(segs, p)
			continue
		}
		segs[len(segs)-1] += annotationSeparator + p
	}
	return segs
}

func annotationKey(seg string) (key, value string, ok bool) {
	key, value, found := strings.Cut(strings.TrimSpace(seg), ":")
	if !found {
		return "", "", false
	}
	if !strings.EqualFold(key, notesKey) && !strings.EqualFold(key, intensityKey) {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
