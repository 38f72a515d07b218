package entry

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FormatDate renders an ISO date (YYYY-MM-DD) as DD/MM/YYYY. Input that is
// not three non-zero numbers is returned unchanged.
func FormatDate(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) != 3 {
		return iso
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return iso
		}
		nums[i] = n
	}
	return fmt.Sprintf("%02d/%02d/%d", nums[2], nums[1], nums[0])
}

// ClassName turns a label into a CSS-safe token: lowercased, accents
// stripped and whitespace removed ("Con energía" -> "conenergia").
func ClassName(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, label)
	if err != nil {
		stripped = label
	}
	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
