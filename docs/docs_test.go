package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCoversRoutes(t *testing.T) {
	var doc struct {
		BasePath string                                `json:"basePath"`
		Schemes  []string                              `json:"schemes"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Equal(t, []string{"https"}, doc.Schemes)

	routes := map[string]string{
		"/auth/request-otp":             "post",
		"/auth/forgot-password/reset":   "post",
		"/members/pending":              "get",
		"/members/{id}/reject":          "put",
		"/payments/special-fund/verify": "post",
		"/payments/history":             "get",
		"/payments/stats":               "get",
		"/villages/{id}":                "delete",
		"/family/{id}":                  "put",
		"/events/{id}/verify-donation":  "post",
		"/payments/membership/fee":      "get",
	}
	for path, method := range routes {
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "missing %s", path) {
			assert.Contains(t, ops, method, "missing %s %s", method, path)
		}
	}
}
