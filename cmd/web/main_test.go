package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSHCommand(t *testing.T) {
	assert.Equal(t, "ssh -p 2222 play.example", pageData{SSHHost: "play.example", SSHPort: "2222"}.SSHCommand())
	assert.Equal(t, "ssh play.example", pageData{SSHHost: "play.example", SSHPort: "22"}.SSHCommand())
}

func TestLandingPage(t *testing.T) {
	h := newHandler(pageData{SSHHost: "play.example", SSHPort: "2222"}, log.New(io.Discard))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ssh -p 2222 play.example")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLandingPageEscapesHost(t *testing.T) {
	h := newHandler(pageData{SSHHost: "<script>", SSHPort: "22"}, log.New(io.Discard))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, rec.Body.String(), "<script>")
}
