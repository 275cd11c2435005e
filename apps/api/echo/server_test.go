package echoapi_test

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	e := setup(t)

	t.Run("home", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/")
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Welcome to Edura API!", rec.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/metrics")
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
	})

	t.Run("uploads are served", func(t *testing.T) {
		dir := filepath.Join(e.conf.Storage.LocalDir, "resources")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

		req, rec := newRequest(http.MethodGet, "/uploads/resources/a.txt")
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", rec.Body.String())
	})

	t.Run("trailing slash", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/cron/generate-bills/")
		e.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
