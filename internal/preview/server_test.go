package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/shadowtpl/internal/config"
	"github.com/conneroisu/shadowtpl/internal/logging"
)

const bannerTemplate = `name: banner
style: |
  .banner { background: gold; }
slots:
  - message
markup: |
  <div class="banner"><slot name="message"></slot></div>
preview:
  message: "<strong>Hello</strong>"
`

func testServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banner.yml"), []byte(bannerTemplate), 0644))

	cfg := &config.Config{
		Templates: config.TemplatesConfig{ScanPaths: []string{dir}},
		Preview:   config.PreviewConfig{Host: "localhost", Port: 0},
		Logging:   config.LoggingConfig{Level: "error", Format: "text"},
	}

	server := NewServer(cfg, logging.Discard())
	require.NoError(t, server.reload(context.Background()))
	return server
}

func TestServer_Reload(t *testing.T) {
	server := testServer(t)

	assert.Equal(t, []string{"banner"}, server.registry.Identities())

	// Reloading replaces rather than duplicates registrations
	require.NoError(t, server.reload(context.Background()))
	assert.Equal(t, 1, server.registry.Count())
}

func TestServer_Index(t *testing.T) {
	server := testServer(t)

	rec := httptest.NewRecorder()
	server.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/component/banner")
	assert.Contains(t, rec.Body.String(), "Banner")
}

func TestServer_Component(t *testing.T) {
	server := testServer(t)

	rec := httptest.NewRecorder()
	server.handleComponent(rec, httptest.NewRequest(http.MethodGet, "/component/banner", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<strong>Hello</strong>")
	assert.Contains(t, body, "data-shadow=")
	assert.Contains(t, body, "/ws")
}

func TestServer_ComponentNotFound(t *testing.T) {
	server := testServer(t)

	rec := httptest.NewRecorder()
	server.handleComponent(rec, httptest.NewRequest(http.MethodGet, "/component/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadHub_Empty(t *testing.T) {
	hub := NewReloadHub(logging.Discard())

	assert.Equal(t, 0, hub.Count())
	hub.Broadcast("reload") // no clients, no panic
	hub.Shutdown()
}
