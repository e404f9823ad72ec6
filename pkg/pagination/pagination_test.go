package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateClamps(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)

	p = &PaginationParams{Page: 3, PerPage: 0}
	p.Validate()
	assert.Equal(t, 15, p.PerPage)
	assert.Equal(t, 30, p.Offset())
}

func TestWindow(t *testing.T) {
	p := &PaginationParams{Page: 2, PerPage: 10}
	start, end := p.Window(25)
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	start, end = (&PaginationParams{Page: 3, PerPage: 10}).Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = (&PaginationParams{Page: 9, PerPage: 10}).Window(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult[string](nil, &PaginationParams{Page: 1, PerPage: 10}, 21)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	assert.False(t, res.Pagination.HasPrev)
}
