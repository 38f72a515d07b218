package entry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DurationPattern accepts H:MM:SS / HH:MM:SS or M:SS / MM:SS.
var DurationPattern = regexp.MustCompile(`^(\d{1,2}:\d{2}:\d{2}|\d{1,2}:\d{2})$`)

// SuspiciousHours is the hour count from which an HH:MM:SS duration is
// probably a mistyped MM:SS.
const SuspiciousHours = 6

// DurationStatus classifies a raw duration string.
type DurationStatus int

const (
	DurationInvalid DurationStatus = iota
	DurationValid
	DurationSuspicious
)

func (s DurationStatus) String() string {
	switch s {
	case DurationValid:
		return "valid"
	case DurationSuspicious:
		return "suspicious"
	default:
		return "invalid"
	}
}

// CheckDuration classifies raw. Surrounding whitespace is ignored.
func CheckDuration(raw string) DurationStatus {
	v := strings.TrimSpace(raw)
	if !DurationPattern.MatchString(v) {
		return DurationInvalid
	}
	if h, ok := hoursOf(v); ok && h >= SuspiciousHours {
		return DurationSuspicious
	}
	return DurationValid
}

// HoursOf returns the hour component of a three-part duration.
func HoursOf(raw string) (int, bool) {
	return hoursOf(strings.TrimSpace(raw))
}

func hoursOf(v string) (int, bool) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	return h, true
}

// ParseDurationMinutes converts "HH:MM:SS" or "MM:SS" to fractional
// minutes. Anything else, including non-numeric parts, yields 0.
func ParseDurationMinutes(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		nums = append(nums, f)
	}

	switch len(nums) {
	case 3:
		return nums[0]*60 + nums[1] + nums[2]/60
	case 2:
		return nums[0] + nums[1]/60
	default:
		return 0
	}
}

// Pace formats minutes per kilometer as "M:SS". A zero distance yields "0:00".
func Pace(minutes, km float64) string {
	var pace float64
	if km > 0 {
		pace = minutes / km
	}
	if pace < 0 || math.IsNaN(pace) || math.IsInf(pace, 0) {
		pace = 0
	}
	mm := math.Floor(pace)
	ss := math.Round((pace - mm) * 60)
	if ss >= 60 {
		mm++
		ss -= 60
	}
	return fmt.Sprintf("%d:%02d", int(mm), int(ss))
}

// ToHHMMSS normalizes "M:SS", "MM:SS" or "HH:MM:SS" to zero-padded
// HH:MM:SS. It returns "" when the input is not two or three integers.
func ToHHMMSS(s string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return ""
		}
		nums = append(nums, n)
	}

	var h, m, sec int
	switch len(nums) {
	case 3:
		h, m, sec = nums[0], nums[1], nums[2]
	case 2:
		h, m, sec = nums[0]/60, nums[0]%60, nums[1]
	default:
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
