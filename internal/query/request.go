package query

import "strings"

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// OrderBy targets a field by its path of field ids from the domain root.
type OrderBy struct {
	Field     []string  `json:"field"`
	Direction Direction `json:"direction"`
}

func (o OrderBy) String() string {
	return strings.Join(o.Field, ".") + " " + string(o.Direction)
}

type Options struct {
	Pagination Pagination `json:"pagination"`
	OrderBy    *OrderBy   `json:"orderby,omitempty"`
}

// DomainRequest is the sanitized, authorized form of a caller request.
type DomainRequest struct {
	Name       string      `json:"name"`
	NaturalKey []string    `json:"naturalKey"`
	Fields     *FieldSet   `json:"fields"`
	Filters    *FilterTree `json:"filters"`
	Options    Options     `json:"options"`
}
