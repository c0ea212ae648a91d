package repository

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination selects one page of a list query. Page is 1-based.
type Pagination struct {
	Page     int
	PageSize int
}

// Normalize clamps out-of-range values to the defaults.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

func (p Pagination) Limit() int {
	return p.Normalize().PageSize
}
