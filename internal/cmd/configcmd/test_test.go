package configcmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/macro-cli/internal/config"
)

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		URL:      serverURL,
		Email:    "test@example.com",
		APIToken: "test-token",
	}
}

func TestRunTest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/spaces", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test@example.com", user)
		assert.Equal(t, "test-token", pass)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	var out bytes.Buffer
	err := runTest(context.Background(), testConfig(server.URL), true, nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Authentication successful")
	assert.Contains(t, out.String(), "Authenticated as: test@example.com")
}

func TestRunTest_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message": "Unauthorized"}`, "authentication failed"},
		{"forbidden", http.StatusForbidden, "", "access denied"},
		{"server error", http.StatusInternalServerError, "", "unexpected status code: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var out bytes.Buffer
			err := runTest(context.Background(), testConfig(server.URL), true, nil, &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, out.String(), "✗")
		})
	}
}

func TestRunTest_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	var out bytes.Buffer
	err := runTest(context.Background(), testConfig(url), true, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection failed")
}

func TestRunTest_NotConfigured(t *testing.T) {
	var out bytes.Buffer
	err := runTest(context.Background(), &config.Config{}, true, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Confluence connection configured")
	assert.Empty(t, out.String())
}
