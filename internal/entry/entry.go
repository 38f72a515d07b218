package entry

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Entry is a training session in the shape the form, list and local store use.
type Entry struct {
	// ID is assigned by whichever store created the entry and never reassigned
	ID ID `json:"id,omitempty"`

	// Date is the session date as YYYY-MM-DD
	Date string `json:"fecha"`

	// Type is the activity label (e.g. "Running")
	Type string `json:"tipo"`

	// Distance is in kilometers
	Distance Number `json:"distancia"`

	// Duration is canonically HH:MM:SS
	Duration string `json:"duracion"`

	// Intensity is the perceived effort label ("Baja", "Media", "Alta")
	Intensity string `json:"intensidad"`

	// Mood is the mood label (sent to the API as sentimiento)
	Mood string `json:"emociones"`

	// Comments is free text
	Comments string `json:"comentarios"`

	// CyclePhase is the menstrual-cycle phase (optional)
	CyclePhase string `json:"ciclo_menstrual"`

	// PreWorkoutMeal describes what was eaten before the session (optional)
	PreWorkoutMeal string `json:"alimentacion_previa"`
}

// Row is a training session in the shape the collection resource speaks.
// Nullable columns are pointers so they serialize as null.
type Row struct {
	ID             ID      `json:"id,omitempty" db:"id"`
	LegacyID       ID      `json:"entrenamiento_id,omitempty" db:"-"`
	Date           string  `json:"fecha" db:"fecha"`
	Type           string  `json:"tipo" db:"tipo"`
	DistanceKm     Number  `json:"distancia_km" db:"distancia_km"`
	LegacyDistance *Number `json:"distancia,omitempty" db:"-"`
	Duration       string  `json:"duracion" db:"duracion"`
	Intensity      *string `json:"intensidad,omitempty" db:"intensidad"`
	Description    *string `json:"descripcion" db:"descripcion"`
	Weather        *string `json:"clima" db:"clima"`
	Sentiment      *string `json:"sentimiento" db:"sentimiento"`
	CyclePhase     *string `json:"ciclo_menstrual" db:"ciclo_menstrual"`
	PreWorkoutMeal *string `json:"alimentacion_previa" db:"alimentacion_previa"`
	CreatedAt      string  `json:"created_at,omitempty" db:"created_at"`
}

// ID identifies an entry. The API assigns integers and the local store
// assigns strings, so both JSON forms are accepted and ids always compare
// as strings.
type ID string

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// Equal reports whether two ids are the same once compared as strings.
func (id ID) Equal(other ID) bool {
	return strings.TrimSpace(string(id)) == strings.TrimSpace(string(other))
}

// MarshalJSON writes integer-looking ids as JSON numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if isInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Scan implements sql.Scanner so integer primary keys land in an ID.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*id = ""
	case int64:
		*id = ID(strconv.FormatInt(v, 10))
	case string:
		*id = ID(v)
	case []byte:
		*id = ID(string(v))
	default:
		return fmt.Errorf("cannot scan %T into entry.ID", src)
	}
	return nil
}

func isInteger(s string) bool {
	if s == "" || len(s) > 18 {
		return false
	}
	if s == "0" {
		return true
	}
	if s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Number is a decimal that tolerates being sent as a JSON string.
// MySQL-backed APIs return DECIMAL columns as strings; anything that does
// not parse becomes 0.
type Number float64

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }

// UnmarshalJSON accepts numbers, numeric strings and null. It never fails.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			*n = 0
			return nil
		}
	}
	*n = Number(parseNumber(s))
	return nil
}

// Scan implements sql.Scanner for REAL and NUMERIC columns.
func (n *Number) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = 0
	case float64:
		*n = Number(v)
	case int64:
		*n = Number(v)
	case string:
		*n = Number(parseNumber(v))
	case []byte:
		*n = Number(parseNumber(string(v)))
	default:
		return fmt.Errorf("cannot scan %T into entry.Number", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (n Number) Value() (driver.Value, error) {
	return float64(n), nil
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
