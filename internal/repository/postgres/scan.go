package postgres

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseDecimal converts a NUMERIC read back as text.
func parseDecimal(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", column, raw, err)
	}
	return d, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with s's own
// wildcard characters escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
