package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestRouter_ExportPDF(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions/missing/export.pdf")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	mustOK(t, s.handleOpenDocument, map[string]any{"text": "Terms of service", "title": "Terms"})
	id := s.sessions.List()[0].ID
	mustOK(t, s.handlePlaceField, map[string]any{"session_id": id, "type": "signature", "x": 40.0, "y": 600.0})
	sess, err := s.sessions.Get(id)
	require.NoError(t, err)
	mustOK(t, s.handleAttachSignature, map[string]any{
		"session_id": id, "field_id": sess.Fields()[0].ID, "kind": "typed", "text": "Jane Doe",
	})

	resp, err = http.Get(srv.URL + "/sessions/" + id + "/export.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Terms-signed.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "1", resp.Header.Get("X-Embed-Count"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestRouter_ListSessions(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	mustOK(t, s.handleOpenDocument, map[string]any{"text": "Body", "title": "Memo"})

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Memo", list[0]["title"])
	assert.Equal(t, "text", list[0]["kind"])
}
