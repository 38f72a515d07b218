package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// Paging limits for List.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// DefaultDuration is stored when a row arrives without a duration.
const DefaultDuration = "00:00:00"

const rowColumns = `id, fecha, tipo, distancia_km, duracion, intensidad, descripcion,
	clima, sentimiento, ciclo_menstrual, alimentacion_previa, created_at`

// ClampPage applies the list defaults: limit <= 0 becomes DefaultListLimit,
// limit is capped at MaxListLimit, offset is floored at 0.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns a page of rows ordered newest first, plus the total row count.
func List(ctx context.Context, db *sqlx.DB, limit, offset int) ([]entry.Row, int, error) {
	limit, offset = ClampPage(limit, offset)

	rows := []entry.Row{}
	query := db.Rebind(`SELECT ` + rowColumns + ` FROM entrenamientos
		ORDER BY fecha DESC, id DESC
		LIMIT ? OFFSET ?`)
	if err := db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM entrenamientos`); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return rows, total, nil
}

// GetByID retrieves a row by its numeric id.
// Returns NOT_FOUND for unknown or non-numeric ids.
func GetByID(ctx context.Context, db *sqlx.DB, id string) (*entry.Row, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, errors.NewNotFound(id)
	}

	var row entry.Row
	query := db.Rebind(`SELECT ` + rowColumns + ` FROM entrenamientos WHERE id = ?`)
	if err := db.GetContext(ctx, &row, query, n); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound(id)
		}
		return nil, errors.NewInternal(err)
	}
	return &row, nil
}

// Insert stores a new row and returns it as persisted, with the id
// assigned by the database. fecha and tipo are required.
func Insert(ctx context.Context, db *sqlx.DB, r entry.Row) (*entry.Row, error) {
	if err := requireDateAndType(r); err != nil {
		return nil, err
	}
	r = withDefaults(r)
	r.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	query := db.Rebind(`INSERT INTO entrenamientos (
			fecha, tipo, distancia_km, duracion, intensidad, descripcion,
			clima, sentimiento, ciclo_menstrual, alimentacion_previa, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := db.QueryRowxContext(ctx, query,
		r.Date, r.Type, float64(r.DistanceKm), r.Duration, r.Intensity, r.Description,
		r.Weather, r.Sentiment, r.CyclePhase, r.PreWorkoutMeal, r.CreatedAt,
	).Scan(&id)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return GetByID(ctx, db, strconv.FormatInt(id, 10))
}

// Update overwrites every column of an existing row and returns it as persisted.
func Update(ctx context.Context, db *sqlx.DB, id string, r entry.Row) (*entry.Row, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	if err := requireDateAndType(r); err != nil {
		return nil, err
	}
	r = withDefaults(r)

	query := db.Rebind(`UPDATE entrenamientos SET
			fecha = ?, tipo = ?, distancia_km = ?, duracion = ?, intensidad = ?,
			descripcion = ?, clima = ?, sentimiento = ?, ciclo_menstrual = ?,
			alimentacion_previa = ?
		WHERE id = ?`)

	res, err := db.ExecContext(ctx, query,
		r.Date, r.Type, float64(r.DistanceKm), r.Duration, r.Intensity,
		r.Description, r.Weather, r.Sentiment, r.CyclePhase,
		r.PreWorkoutMeal, n,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, errors.NewNotFound(id)
	}

	return GetByID(ctx, db, id)
}

// Delete removes a row. It reports whether a row was removed.
func Delete(ctx context.Context, db *sqlx.DB, id string) (bool, error) {
	n, ok := parseID(id)
	if !ok {
		return false, nil
	}

	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM entrenamientos WHERE id = ?`), n)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected > 0, nil
}

func requireDateAndType(r entry.Row) error {
	if strings.TrimSpace(r.Date) == "" || strings.TrimSpace(r.Type) == "" {
		return errors.NewInvalidRequest("fecha y tipo son obligatorios")
	}
	return nil
}

// withDefaults folds legacy aliases and empty optionals into storable values.
func withDefaults(r entry.Row) entry.Row {
	if r.DistanceKm == 0 && r.LegacyDistance != nil {
		r.DistanceKm = *r.LegacyDistance
	}
	if strings.TrimSpace(r.Duration) == "" {
		r.Duration = DefaultDuration
	}
	r.Intensity = emptyToNil(r.Intensity)
	r.Description = emptyToNil(r.Description)
	r.Weather = emptyToNil(r.Weather)
	r.Sentiment = emptyToNil(r.Sentiment)
	r.CyclePhase = emptyToNil(r.CyclePhase)
	r.PreWorkoutMeal = emptyToNil(r.PreWorkoutMeal)
	return r
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
