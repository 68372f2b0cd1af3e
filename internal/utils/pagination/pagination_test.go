package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int
		want           Pagination
	}{
		{"defaults", 0, 0, Pagination{Page: 1, PageSize: 20}},
		{"negative", -3, -1, Pagination{Page: 1, PageSize: 20}},
		{"clamped", 2, 500, Pagination{Page: 2, PageSize: 100}},
		{"kept", 4, 10, Pagination{Page: 4, PageSize: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.page, tt.pageSize))
		})
	}
}

func TestInfo(t *testing.T) {
	p := Normalize(2, 10)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, PageInfo{Page: 2, PageSize: 10, Total: 21, TotalPages: 3}, p.Info(21))
	assert.Equal(t, 0, p.Info(0).TotalPages)
}
