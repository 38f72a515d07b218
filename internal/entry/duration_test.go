package entry

import (
	"math"
	"testing"
)

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"29:05", 29.0833},
		{"00:29:05", 29.0833},
		{"01:00:00", 60},
		{"5:00", 5},
		{"abc", 0},
		{"", 0},
		{"1:2:3:4", 0},
		{"aa:10", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDurationMinutes(tt.in)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("ParseDurationMinutes(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPace(t *testing.T) {
	tests := []struct {
		name    string
		minutes float64
		km      float64
		want    string
	}{
		{"29:05 over 5km", ParseDurationMinutes("29:05"), 5, "5:49"},
		{"even", 50, 10, "5:00"},
		{"zero distance", 30, 0, "0:00"},
		{"rounds up to next minute", 5.999, 1, "6:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Pace(tt.minutes, tt.km); got != tt.want {
				t.Errorf("Pace(%v, %v) = %q, want %q", tt.minutes, tt.km, got, tt.want)
			}
		})
	}
}

func TestToHHMMSS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"29:05", "00:29:05"},
		{"5:00", "00:05:00"},
		{"90:30", "01:30:30"},
		{"1:02:03", "01:02:03"},
		{" 00:29:05 ", "00:29:05"},
		{"abc", ""},
		{"1:2:3:4", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ToHHMMSS(tt.in); got != tt.want {
				t.Errorf("ToHHMMSS(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCheckDuration(t *testing.T) {
	tests := []struct {
		in   string
		want DurationStatus
	}{
		{"00:29:05", DurationValid},
		{"29:05", DurationValid},
		{"5:00", DurationValid},
		{"05:59:59", DurationValid},
		{"6:05:00", DurationSuspicious},
		{"1:05:00", DurationValid},
		{"123:00:00", DurationInvalid},
		{"06:05:00", DurationSuspicious},
		{"12:00:00", DurationSuspicious},
		{"abc", DurationInvalid},
		{"", DurationInvalid},
		{"123:00", DurationInvalid},
		{" 29:05 ", DurationValid},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CheckDuration(tt.in); got != tt.want {
				t.Errorf("CheckDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHoursOf(t *testing.T) {
	if h, ok := HoursOf("06:05:00"); !ok || h != 6 {
		t.Errorf("HoursOf(06:05:00) = %d, %v", h, ok)
	}
	if _, ok := HoursOf("29:05"); ok {
		t.Error("HoursOf(29:05) should not report hours")
	}
}
