package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQueryNormalize(t *testing.T) {
	q := PageQuery{}.Normalize()
	assert.Equal(t, PageQuery{Page: 1, Limit: DefaultPageLimit}, q)
	assert.Equal(t, 0, q.Offset())

	q = PageQuery{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, MaxPageLimit, q.Limit)
	assert.Equal(t, 200, q.Offset())

	q = PageQuery{Page: 1 << 62, Limit: 100}.Normalize()
	assert.Equal(t, MaxPage, q.Page)
	assert.Equal(t, (MaxPage-1)*100, q.Offset())
}

func TestPagination(t *testing.T) {
	assert.Equal(t, int64(0), NewPagination(PageQuery{}, 0).TotalPages)
	assert.Equal(t, int64(1), NewPagination(PageQuery{Limit: 20}, 20).TotalPages)
	assert.Equal(t, int64(2), NewPagination(PageQuery{Limit: 20}, 21).TotalPages)

	p := NewPage[int](nil, PageQuery{Page: 2, Limit: 5}, 7)
	assert.NotNil(t, p.Items)
	assert.Equal(t, Pagination{Page: 2, Limit: 5, Total: 7, TotalPages: 2}, p.Pagination)
}
