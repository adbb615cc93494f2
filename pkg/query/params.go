package query

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
	DefaultSort  = "created_at"
)

// Pagination is an offset window over a result set.
type Pagination struct {
	Skip  int
	Limit int
}

// Validate enforces skip >= 0 and limit within [0, MaxLimit].
func (p Pagination) Validate() error {
	if p.Skip < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "skip must be greater than or equal to 0")
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("limit must be between 0 and %d", MaxLimit))
	}
	return nil
}

// ParsePagination reads raw skip/limit query values, applying defaults for blanks.
func ParsePagination(rawSkip, rawLimit string) (Pagination, error) {
	p := Pagination{Skip: 0, Limit: DefaultLimit}
	if rawSkip != "" {
		skip, err := strconv.Atoi(rawSkip)
		if err != nil {
			return Pagination{}, appErrors.Wrap(err, appErrors.ErrValidation, "skip must be an integer")
		}
		p.Skip = skip
	}
	if rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			return Pagination{}, appErrors.Wrap(err, appErrors.ErrValidation, "limit must be an integer")
		}
		p.Limit = limit
	}
	if err := p.Validate(); err != nil {
		return Pagination{}, err
	}
	return p, nil
}

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Sort is a parsed sort request such as "name" or "-created_at".
type Sort struct {
	Raw       string
	Field     string
	Direction Direction
}

// ParseSort derives field and direction from raw. A leading "-" means descending;
// all leading sign characters are stripped from the field.
func ParseSort(raw string) Sort {
	if raw == "" {
		raw = DefaultSort
	}
	direction := Asc
	if strings.HasPrefix(raw, "-") {
		direction = Desc
	}
	return Sort{Raw: raw, Field: strings.TrimLeft(raw, "+-"), Direction: direction}
}
