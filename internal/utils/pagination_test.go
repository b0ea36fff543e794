package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaginationParams_Normalize(t *testing.T) {
	assert.Equal(t, PaginationParams{Skip: 0, Limit: 100}, PaginationParams{Skip: -1, Limit: 0}.Normalize())
	assert.Equal(t, PaginationParams{Skip: 5, Limit: 100}, PaginationParams{Skip: 5, Limit: 1001}.Normalize())
	assert.Equal(t, PaginationParams{Skip: 5, Limit: 1000}, PaginationParams{Skip: 5, Limit: 1000}.Normalize())
}

func TestPaginationParams_HasMore(t *testing.T) {
	assert.True(t, PaginationParams{Skip: 0, Limit: 2}.HasMore(3))
	assert.False(t, PaginationParams{Skip: 1, Limit: 2}.HasMore(3))
	assert.False(t, PaginationParams{Skip: 10, Limit: 2}.HasMore(3))
	assert.False(t, PaginationParams{Skip: 0, Limit: 100}.HasMore(0))
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := map[string]struct {
		value string
		id    uint64
		ok    bool
	}{
		"valid":    {"42", 42, true},
		"zero":     {"0", 0, false},
		"negative": {"-1", 0, false},
		"text":     {"abc", 0, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Params = gin.Params{{Key: "id", Value: tc.value}}

			id, ok := ParseIDParam(c, "id")
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}
