package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/speakmate/speakmate/core/student"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=-overall,username`: comma separated fields, "-" for descending.
type Ordering struct {
	Orderings []student.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, student.Ordering{Field: field, Ascending: !descending})
	}
}
