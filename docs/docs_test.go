package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestDocument(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Info  map[string]any            `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc), "document must be valid JSON")
	assert.Equal(t, "Taskboard API", doc.Info["title"])

	for _, path := range []string{
		"/auth/send-otp",
		"/auth/verify-otp",
		"/auth/resend-otp",
		"/auth/login",
		"/auth/register",
		"/auth/forget-password",
		"/auth/reset-password",
		"/auth/logout",
		"/auth/current-user",
		"/auth/refresh-token",
		"/auth/me",
		"/admin/users/{id}/block",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}
