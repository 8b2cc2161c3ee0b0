package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}
}

func TestLoader_List(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, map[string][]byte{
		"lease_agreement.pdf":      make([]byte, 1024),
		"contracts/Sales-NDA.pdf":  make([]byte, 2048),
		"contracts/notes.txt":      []byte("not a pdf"),
		"empty.pdf":                {},
		"large.pdf":                make([]byte, 4096),
		".cache/hidden_lease.pdf":  make([]byte, 100),
		"archive/old_lease_v1.PDF": make([]byte, 100),
	})
	l := newLoader(t, dir, 3000)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"all", "", 0, []string{"archive/old_lease_v1.PDF", "contracts/Sales-NDA.pdf", "lease_agreement.pdf"}},
		{"substring", "lease", 0, []string{"archive/old_lease_v1.PDF", "lease_agreement.pdf"}},
		{"words in any order", "agreement lease", 0, []string{"lease_agreement.pdf"}},
		{"case insensitive", "nda", 0, []string{"contracts/Sales-NDA.pdf"}},
		{"no match", "invoice", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := l.List(tt.query, tt.limit)
			require.NoError(t, err)

			got := make([]string, 0, len(listing.Entries))
			for _, e := range listing.Entries {
				got = append(got, e.Path)
			}
			assert.Equal(t, tt.want, got)
			assert.False(t, listing.Truncated)
		})
	}
}

func TestLoader_ListLimit(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, map[string][]byte{
		"a.pdf": make([]byte, 10),
		"b.pdf": make([]byte, 10),
		"c.pdf": make([]byte, 10),
	})
	l := newLoader(t, dir, 0)

	listing, err := l.List("", 2)
	require.NoError(t, err)
	assert.Len(t, listing.Entries, 2)
	assert.True(t, listing.Truncated)
	assert.Equal(t, dir, listing.Directory)
}

func TestLoader_ListMissingDirectory(t *testing.T) {
	l := newLoader(t, filepath.Join(t.TempDir(), "missing"), 0)
	_, err := l.List("", 0)
	require.Error(t, err)
}

func TestMatchesQuery(t *testing.T) {
	assert.True(t, matchesQuery("Q3 Board (final).pdf", "board final"))
	assert.True(t, matchesQuery("report.pdf", ""))
	assert.False(t, matchesQuery("report.pdf", "board"))
	assert.Equal(t, []string{"q3", "board", "final", "pdf"}, splitIntoWords("Q3 Board (final).pdf"))
}
