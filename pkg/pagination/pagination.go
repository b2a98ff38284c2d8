package pagination

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	MinLimit = 1
	MaxLimit = 10000
)

// ErrInvalidLimit is returned when the limit parameter is not an integer in
// [MinLimit, MaxLimit].
var ErrInvalidLimit = errors.New("limit deve ser um inteiro entre 1 e 10000")

// Params holds the optional result cap extracted from a request. A zero
// Limit means no cap.
type Params struct {
	Limit int
}

// FromContext extracts the limit query parameter from the echo context.
func FromContext(c echo.Context) (Params, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return Params{}, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < MinLimit || limit > MaxLimit {
		return Params{}, ErrInvalidLimit
	}
	return Params{Limit: limit}, nil
}

// Capped reports whether a limit was supplied.
func (p Params) Capped() bool {
	return p.Limit > 0
}

// SQL returns the LIMIT clause for SQL queries, or an empty string when no
// cap was supplied.
func (p Params) SQL() string {
	if !p.Capped() {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", p.Limit)
}
