package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump flattens an error chain for structured logs. Database fields are
// filled from pgx, lib/pq or sqlite3 errors found anywhere in the chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Hint names the procurement invariant a violated constraint protects.
	Hint string `json:"hint,omitempty"`
}

// constraintHints maps unique indexes to what a collision on them means.
var constraintHints = map[string]string{
	"ux_material_orders_po_number":                "po number already issued",
	"ux_material_orders_job_supplier":             "job already has an order for this supplier",
	"ux_material_generation_runs_job_id":          "orders already generated for this job",
	"ux_installation_jobs_job_number":             "duplicate job number",
	"ux_supplier_offers_product_supplier_product": "offer already mapped",
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var (
		pgxErr  *pgconn.PgError
		pqErr   *pq.Error
		liteErr sqlite3.Error
	)
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	case errors.As(err, &liteErr):
		d.PGCode = fmt.Sprintf("sqlite:%d", int(liteErr.ExtendedCode))
		d.PGMessage = liteErr.Error()
	}
	d.Hint = hintFor(d.PGConstraint, d.PGMessage)
	return d
}

func hintFor(constraint, message string) string {
	if hint, ok := constraintHints[constraint]; ok {
		return hint
	}
	if message == "" {
		return ""
	}
	for name, hint := range constraintHints {
		if strings.Contains(message, name) {
			return hint
		}
	}
	return ""
}
