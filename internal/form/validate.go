package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mdc-app/mdc/internal/entry"
)

// Messages shown next to the duration field.
const (
	DurationHint  = "Ej: 00:29:05 o 29:05"
	DurationError = "Revisá la duración: usá HH:MM:SS (00:29:05) o MM:SS (29:05)."
)

// Validation is the outcome of checking the duration and distance inputs.
type Validation struct {
	Status entry.DurationStatus `json:"-"`

	// Error is set for invalid durations and blocks submission.
	Error string `json:"error,omitempty"`

	// Warning is set for suspicious durations; submission is still allowed.
	Warning string `json:"warning,omitempty"`

	// Preview is the live pace line; empty when hidden.
	Preview string `json:"preview,omitempty"`

	// Pace is the bare "m:ss" value behind Preview.
	Pace string `json:"pace,omitempty"`
}

// StatusName is the status name used in JSON responses.
func (v Validation) StatusName() string { return v.Status.String() }

// Blocks reports whether the value must not be submitted.
func (v Validation) Blocks() bool { return v.Status == entry.DurationInvalid }

// PreviewVisible reports whether the pace line should be shown.
func (v Validation) PreviewVisible() bool { return v.Preview != "" }

// Validate checks a raw duration and distance the way the form does on
// every change. The pace preview needs a usable duration and a distance
// above zero.
func Validate(rawDuration, rawDistance string) Validation {
	duration := strings.TrimSpace(rawDuration)
	status := entry.CheckDuration(duration)

	v := Validation{Status: status}
	if status == entry.DurationInvalid {
		v.Error = DurationError
		return v
	}

	if status == entry.DurationSuspicious {
		h, _ := entry.HoursOf(duration)
		v.Warning = fmt.Sprintf("Revisá duración (parecen %d horas).", h)
	}

	km := ParseDistance(rawDistance)
	if km <= 0 {
		return v
	}

	v.Pace = entry.Pace(entry.ParseDurationMinutes(duration), km)
	if v.Warning != "" {
		v.Preview = fmt.Sprintf("%s Pace estimado: %s min/km", v.Warning, v.Pace)
	} else {
		v.Preview = fmt.Sprintf("Pace: %s min/km", v.Pace)
	}
	return v
}

// ParseDistance reads a kilometer value, accepting a decimal comma.
// Anything unparsable, negative or non-finite is 0.
func ParseDistance(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatDistance renders a distance for an input field; 0 is empty.
func FormatDistance(km float64) string {
	if km == 0 {
		return ""
	}
	return strconv.FormatFloat(km, 'f', -1, 64)
}
