package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Nicko-rgb/server-notas/core"
)

const orderingParam = "ordering"

// Ordering binds the "ordering" query param: comma-separated field names,
// each optionally prefixed with "-" for descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return
	}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:]
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
