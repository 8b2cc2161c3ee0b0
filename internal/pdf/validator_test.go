package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

func TestValidator_ValidateFile(t *testing.T) {
	validator := NewValidator(1024 * 1024) // 1MB limit
	dir := t.TempDir()

	validPath := filepath.Join(dir, "valid.pdf")
	if err := os.WriteFile(validPath, sourcePDF(t, 3), 0o644); err != nil {
		t.Fatalf("failed to write pdf: %v", err)
	}
	corruptPath := filepath.Join(dir, "corrupt.pdf")
	if err := os.WriteFile(corruptPath, []byte("%PDF-1.4\nnothing else"), 0o644); err != nil {
		t.Fatalf("failed to write pdf: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		expectError bool
		expectPages int
	}{
		{name: "empty path", path: "", expectError: true},
		{name: "non-existent file", path: "/non/existent/file.pdf", expectError: true},
		{name: "directory", path: dir, expectError: true},
		{name: "corrupt file", path: corruptPath, expectError: true},
		{name: "valid file", path: validPath, expectPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, info, err := validator.ValidateFile(tt.path)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(data) == 0 {
				t.Errorf("expected file contents")
			}
			if info.PageCount != tt.expectPages {
				t.Errorf("expected %d pages but got %d", tt.expectPages, info.PageCount)
			}
			if info.Path != tt.path {
				t.Errorf("expected Path=%s but got %s", tt.path, info.Path)
			}
			if len(info.PageSizes) != tt.expectPages {
				t.Fatalf("expected %d page sizes but got %d", tt.expectPages, len(info.PageSizes))
			}
			if info.PageSizes[0].Width != 612 || info.PageSizes[0].Height != 792 {
				t.Errorf("unexpected page size %+v", info.PageSizes[0])
			}
		})
	}
}

func TestValidator_ValidateFileInfo(t *testing.T) {
	validator := NewValidator(1024) // 1KB limit
	dir := t.TempDir()

	files := map[string][]byte{
		"valid.pdf":    []byte("%PDF-1.4 small"),
		"large.pdf":    make([]byte, 2048),
		"empty.pdf":    {},
		"document.txt": []byte("text"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	tests := []struct {
		name        string
		file        string
		expectError bool
	}{
		{"valid pdf", "valid.pdf", false},
		{"too large", "large.pdf", true},
		{"empty", "empty.pdf", true},
		{"not a pdf", "document.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			fileInfo, err := os.Stat(path)
			if err != nil {
				t.Fatalf("failed to stat %s: %v", path, err)
			}

			err = validator.ValidateFileInfo(path, fileInfo)
			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidator_ValidateSource(t *testing.T) {
	validator := NewValidator(0)

	if validator.IsValidPDF(nil) {
		t.Errorf("empty input must not be valid")
	}
	if validator.IsValidPDF([]byte("GIF89a")) {
		t.Errorf("non-PDF input must not be valid")
	}
	if !validator.IsValidPDF(sourcePDF(t, 1)) {
		t.Errorf("generated PDF should be valid")
	}

	_, err := validator.ValidateSource([]byte("%PDF-1.7\ngarbage"))
	if !errors.Is(err, signerrors.ErrExportFatal) {
		t.Errorf("expected export fatal error, got %v", err)
	}

	small := NewValidator(16)
	if _, err := small.ValidateSource(sourcePDF(t, 1)); err == nil {
		t.Errorf("expected size limit error")
	}
}
