package entry

import "testing"

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-05-01", "01/05/2024"},
		{"2024-12-31", "31/12/2024"},
		{"", ""},
		{"ayer", "ayer"},
		{"2024-00-01", "2024-00-01"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Con energía", "conenergia"},
		{"Feliz", "feliz"},
		{"Lútea tardía", "luteatardia"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ClassName(tt.in); got != tt.want {
			t.Errorf("ClassName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
