package sqlxrepos

import (
	"strings"

	"github.com/Nicko-rgb/server-notas/core"
)

// pqUniqueViolation is the postgres error code for unique constraint violations.
const pqUniqueViolation = "23505"

func orderingClause(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
