package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/constants"
)

func queryContext(rawQuery string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, constants.DefaultPageSize},
		{"page=3&limit=10", 3, 10},
		{"page=0&limit=0", 1, constants.DefaultPageSize},
		{"page=abc&limit=1000", 1, constants.DefaultPageSize},
	}

	for _, tt := range tests {
		params := GetPaginationParams(queryContext(tt.query))
		require.Equal(t, tt.wantPage, params.Page, tt.query)
		require.Equal(t, tt.wantLimit, params.Limit, tt.query)
		require.Equal(t, (tt.wantPage-1)*tt.wantLimit, params.Offset, tt.query)
	}
}

func TestParseIDParam(t *testing.T) {
	c := queryContext("")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := ParseIDParam(c, "id")
	require.True(t, ok)
	require.Equal(t, uint64(42), id)

	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok = ParseIDParam(c, "id")
	require.False(t, ok)

	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	_, ok = ParseIDParam(c, "id")
	require.False(t, ok)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("supersecret")
	require.NoError(t, err)
	require.NotEqual(t, "supersecret", hash)
	require.True(t, CheckPassword(hash, "supersecret"))
	require.False(t, CheckPassword(hash, "wrong"))
}

func TestNullable(t *testing.T) {
	var payload struct {
		Organization Nullable[uint64] `json:"organization"`
		Capacity     Nullable[int]    `json:"capacity"`
		Name         Nullable[string] `json:"name"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"organization": null, "capacity": 5}`), &payload))

	require.True(t, payload.Organization.Set)
	require.True(t, payload.Organization.Null)
	require.Nil(t, payload.Organization.Ptr())

	require.True(t, payload.Capacity.Set)
	require.False(t, payload.Capacity.Null)
	require.Equal(t, 5, *payload.Capacity.Ptr())

	require.False(t, payload.Name.Set)
	require.Nil(t, payload.Name.Ptr())
}
