package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePDF(t *testing.T, pages int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Text(72, 72, "page")
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func newLoader(t *testing.T, dir string, maxSize int64) *Loader {
	t.Helper()
	l, err := NewLoader(Options{Directory: dir, MaxFileSize: maxSize})
	require.NoError(t, err)
	return l
}

func TestLoader_LoadPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lease.pdf"), makePDF(t, 2), 0o644))
	l := newLoader(t, dir, 10*1024*1024)

	doc, err := l.LoadPath("lease.pdf")
	require.NoError(t, err)
	assert.Equal(t, KindPDF, doc.Kind)
	assert.Equal(t, "lease", doc.Title)
	assert.Equal(t, 2, doc.Info.PageCount)
	assert.InDelta(t, 612, doc.Info.PageSizes[0].Width, 0.01)

	_, err = l.LoadPath("../lease.pdf")
	assert.Error(t, err)

	_, err = l.LoadPath("missing.pdf")
	assert.Error(t, err)
}

func TestLoader_LoadURL(t *testing.T) {
	data := makePDF(t, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(data)
		case "/html":
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := newLoader(t, t.TempDir(), 10*1024*1024)

	doc, err := l.LoadURL(context.Background(), srv.URL+"/doc.pdf?token=abc")
	require.NoError(t, err)
	assert.Equal(t, "doc", doc.Title)
	assert.Equal(t, 1, doc.Info.PageCount)

	_, err = l.LoadURL(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)

	_, err = l.LoadURL(context.Background(), srv.URL+"/html")
	assert.Error(t, err)

	_, err = l.LoadURL(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)

	small := newLoader(t, t.TempDir(), 64)
	_, err = small.LoadURL(context.Background(), srv.URL+"/doc.pdf")
	assert.Error(t, err)
}

func TestLoader_LoadBase64(t *testing.T) {
	l := newLoader(t, t.TempDir(), 0)
	enc := base64.StdEncoding.EncodeToString(makePDF(t, 3))

	doc, err := l.LoadBase64("data:application/pdf;base64,"+enc, "upload.pdf")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Info.PageCount)

	doc, err = l.LoadBase64(enc, "upload.pdf")
	require.NoError(t, err)
	assert.Equal(t, "upload", doc.Title)

	_, err = l.LoadBase64("%%%", "bad")
	assert.Error(t, err)
}

func TestLoader_LoadText(t *testing.T) {
	l := newLoader(t, t.TempDir(), 0)

	doc := l.LoadText("", "hello")
	assert.Equal(t, KindText, doc.Kind)
	assert.Equal(t, "Untitled Document", doc.Title)
	assert.Nil(t, doc.Data)

	doc = l.LoadText("NDA", "body")
	assert.Equal(t, "NDA", doc.Title)
	assert.Equal(t, "body", doc.Text)
}

func TestTitleFrom(t *testing.T) {
	tests := map[string]string{
		"/docs/lease.pdf":                  "lease",
		"https://x.test/a/b/Offer.PDF?q=1": "Offer",
		"C:\\files\\nda.pdf":               "nda",
		"":                                 "Untitled Document",
	}
	for in, want := range tests {
		assert.Equal(t, want, titleFrom(in), in)
	}
}

func TestLoader_WriteFile(t *testing.T) {
	dir := t.TempDir()
	l := newLoader(t, dir, 1024)

	path, err := l.WriteFile("out/signed.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "signed.pdf"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(got))

	_, err = l.WriteFile("../escape.pdf", []byte("x"))
	assert.Error(t, err)
	_, err = l.WriteFile("notes.txt", []byte("x"))
	assert.Error(t, err)
}
