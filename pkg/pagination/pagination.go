package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultTake is the page size used when the client does not specify one.
	DefaultTake = 20
	// MaxTake bounds the page size a client may request.
	MaxTake = 100
)

// Params holds take/skip pagination parameters extracted from query strings.
type Params struct {
	Take int `json:"take"`
	Skip int `json:"skip"`
}

// Default returns sensible pagination defaults.
func Default() Params {
	return Params{Take: DefaultTake, Skip: 0}
}

// FromRequest extracts take/skip parameters from an HTTP request,
// clamping take to (0, MaxTake] and skip to >= 0.
func FromRequest(r *http.Request) Params {
	p := Default()

	if take := r.URL.Query().Get("take"); take != "" {
		if v, err := strconv.Atoi(take); err == nil && v > 0 {
			if v > MaxTake {
				v = MaxTake
			}
			p.Take = v
		}
	}

	if skip := r.URL.Query().Get("skip"); skip != "" {
		if v, err := strconv.Atoi(skip); err == nil && v >= 0 {
			p.Skip = v
		}
	}

	return p
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Take       int  `json:"take"`
	Skip       int  `json:"skip"`
	HasMore    bool `json:"has_more"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Take:       params.Take,
		Skip:       params.Skip,
		HasMore:    params.Skip+len(data) < totalCount,
	}
}
