package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is a PDF that can be opened from the document directory
type Entry struct {
	Path         string `json:"path"` // relative to the document directory
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Listing is the result of a catalog query
type Listing struct {
	Directory string  `json:"directory"`
	Query     string  `json:"query,omitempty"`
	Entries   []Entry `json:"entries"`
	Truncated bool    `json:"truncated"`
}

// List walks the document directory for PDFs whose names match query. Words
// in the query may appear in any order and match parts of the file name.
// Hidden directories, empty files and files over the size limit are skipped.
// A limit of zero or less returns every match
func (l *Loader) List(query string, limit int) (*Listing, error) {
	root := l.guard.Root()
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("cannot read document directory: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	listing := &Listing{Directory: root, Query: query, Entries: []Entry{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}

		// Symlinks pointing out of the directory are not listed
		if _, err := l.guard.Resolve(path); err != nil {
			return nil //nolint:nilerr
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		if err := l.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr
		}
		if !matchesQuery(d.Name(), query) {
			return nil
		}

		if limit > 0 && len(listing.Entries) >= limit {
			listing.Truncated = true
			return filepath.SkipAll
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		listing.Entries = append(listing.Entries, Entry{
			Path:         filepath.ToSlash(rel),
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.DateTime),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking document directory: %w", err)
	}

	sort.Slice(listing.Entries, func(i, j int) bool {
		return listing.Entries[i].Path < listing.Entries[j].Path
	})
	l.logger.Debug("listed documents", "query", query, "count", len(listing.Entries), "truncated", listing.Truncated)
	return listing, nil
}

// matchesQuery performs fuzzy matching on a file name
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(name, ".pdf"))
	for _, q := range splitIntoWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitIntoWords splits on the separators common in document names
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch r {
		case ' ', '_', '-', '.', '(', ')', '[', ']':
			return true
		}
		return false
	})
}
