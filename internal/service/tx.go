package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// joinTx runs fn in the caller's transaction when there is one, otherwise
// in a new one.
func joinTx(ctx context.Context, db *gorm.DB, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return runTx(ctx, db, fn)
}

// notFound maps gorm.ErrRecordNotFound to the given sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// duplicated maps a unique violation (gorm.ErrDuplicatedKey, enabled with
// TranslateError) to the given sentinel.
func duplicated(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return sentinel
	}
	return err
}

// ── Calendar days ───────────────────────────────────────────────────────────

const fechaLayout = "2006-01-02"

// inicioDia returns midnight of t's calendar day in loc.
func inicioDia(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// rangoDia returns the [desde, hasta) instants of t's calendar day in loc.
func rangoDia(t time.Time, loc *time.Location) (time.Time, time.Time) {
	desde := inicioDia(t, loc)
	return desde, desde.AddDate(0, 0, 1)
}

// parseFecha parses YYYY-MM-DD in loc. An empty string means today.
func parseFecha(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return inicioDia(now, loc), nil
	}
	t, err := time.ParseInLocation(fechaLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrFechaInvalida, s)
	}
	return t, nil
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func uuidPtrString(v *uuid.UUID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// fechaCalendario is t's calendar day in loc as a UTC midnight, the form the
// DATE columns store.
func fechaCalendario(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// diaLocal reinterprets a DATE column value as midnight in loc.
func diaLocal(fecha time.Time, loc *time.Location) time.Time {
	return time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, loc)
}
