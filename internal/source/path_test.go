package source

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathGuard_Resolve(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "contracts"), 0o755))

	guard, err := NewPathGuard(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"relative", "contracts/lease.pdf", filepath.Join(root, "contracts", "lease.pdf"), false},
		{"absolute inside", filepath.Join(root, "a.pdf"), filepath.Join(root, "a.pdf"), false},
		{"dot segments inside", "contracts/../a.pdf", filepath.Join(root, "a.pdf"), false},
		{"escape", "../outside.pdf", "", true},
		{"absolute outside", "/etc/passwd", "", true},
		{"sibling with shared prefix", root + "-other/a.pdf", "", true},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := guard.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathGuard_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pdf")
	require.NoError(t, os.WriteFile(target, []byte("%PDF-1.4"), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.pdf")))

	guard, err := NewPathGuard(root)
	require.NoError(t, err)

	_, err = guard.Resolve("link.pdf")
	assert.Error(t, err)
}

func TestNewPathGuard_Empty(t *testing.T) {
	_, err := NewPathGuard("")
	assert.Error(t, err)
}
