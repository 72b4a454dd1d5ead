// Package ponumber hands out purchase order numbers of the form
// PO-YYYYMMDD-NNN. The sequence restarts every calendar day in the
// configured business time zone.
package ponumber

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const prefix = "PO"

const nextSQL = `INSERT INTO po_sequences (scope, last_value, updated_at)
VALUES (?, (SELECT COUNT(*) FROM material_orders WHERE po_number LIKE ?) + 1, ?)
ON CONFLICT (scope) DO UPDATE SET last_value = po_sequences.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`

// Service allocates PO numbers from the po_sequences table.
type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewService(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, loc: loc, now: time.Now}
}

// NextPONumber allocates the next number for the day containing scope.
func (s *Service) NextPONumber(ctx context.Context, scope time.Time) (string, error) {
	return s.NextPONumberTx(ctx, s.db, scope)
}

// NextPONumberTx allocates inside the caller's transaction so the number is
// released if the order insert rolls back.
func (s *Service) NextPONumberTx(ctx context.Context, tx *gorm.DB, scope time.Time) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("po number allocation requires a db handle")
	}
	day := DayKey(scope, s.loc)

	var seq int64
	err := tx.WithContext(ctx).
		Raw(nextSQL, day, fmt.Sprintf("%s-%s-%%", prefix, day), s.now().UTC()).
		Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("advance po sequence %s: %w", day, err)
	}
	if seq <= 0 {
		return "", fmt.Errorf("advance po sequence %s: no value returned", day)
	}
	return Format(day, seq), nil
}

// DayKey renders t as YYYYMMDD in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("20060102")
}

// Format builds the PO number for a day key and sequence. Sequences past 999
// keep all their digits, so PO-YYYYMMDD-1000 sorts before PO-YYYYMMDD-999 as
// a string. Order PO numbers with Less.
func Format(day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day, seq)
}

// Parse splits a PO number into its day key and sequence.
func Parse(po string) (string, int64, error) {
	parts := strings.Split(po, "-")
	if len(parts) != 3 || parts[0] != prefix || len(parts[1]) != 8 {
		return "", 0, fmt.Errorf("malformed po number %q", po)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 1 {
		return "", 0, fmt.Errorf("malformed po number %q", po)
	}
	return parts[1], seq, nil
}

// Less orders PO numbers by day and then numerically by sequence. Values that
// do not parse fall back to string order.
func Less(a, b string) bool {
	dayA, seqA, errA := Parse(a)
	dayB, seqB, errB := Parse(b)
	if errA != nil || errB != nil {
		return a < b
	}
	if dayA != dayB {
		return dayA < dayB
	}
	return seqA < seqB
}
