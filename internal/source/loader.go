// Package source supplies the document a signing session works on: PDF bytes
// from the document directory or a URL, or plain text with a title
package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
)

// Kind of source document
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindText Kind = "text"
)

// Document is a loaded source. PDF documents carry validated bytes; text
// documents carry the title and body the export synthesizes a page from
type Document struct {
	Kind   Kind            `json:"kind"`
	Origin string          `json:"origin"`
	Title  string          `json:"title"`
	Text   string          `json:"-"`
	Data   []byte          `json:"-"`
	Info   *pdf.SourceInfo `json:"info,omitempty"`
}

// Options configures a Loader
type Options struct {
	Directory    string
	MaxFileSize  int64
	FetchTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Loader resolves document sources
type Loader struct {
	guard       *PathGuard
	validator   *pdf.Validator
	client      *http.Client
	maxFileSize int64
	logger      *slog.Logger
}

// NewLoader creates a loader confined to opts.Directory
func NewLoader(opts Options) (*Loader, error) {
	guard, err := NewPathGuard(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.FetchTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		guard:       guard,
		validator:   pdf.NewValidator(opts.MaxFileSize),
		client:      client,
		maxFileSize: opts.MaxFileSize,
		logger:      logger,
	}, nil
}

// Directory returns the document directory
func (l *Loader) Directory() string {
	return l.guard.Root()
}

// LoadPath reads a PDF from the document directory
func (l *Loader) LoadPath(path string) (*Document, error) {
	resolved, err := l.guard.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	data, info, err := l.validator.ValidateFile(resolved)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("loaded document", "path", resolved, "pages", info.PageCount, "bytes", info.Size)
	return &Document{Kind: KindPDF, Origin: resolved, Title: titleFrom(resolved), Data: data, Info: info}, nil
}

// WriteFile stores an exported document inside the document directory and
// returns its absolute path
func (l *Loader) WriteFile(path string, data []byte) (string, error) {
	resolved, err := l.guard.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(resolved), ".pdf") {
		return "", fmt.Errorf("output path must end in .pdf: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	l.logger.Debug("wrote document", "path", resolved, "bytes", len(data))
	return resolved, nil
}

// LoadURL fetches a PDF over http or https
func (l *Loader) LoadURL(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid document URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch document: %s", resp.Status)
	}

	body := io.Reader(resp.Body)
	if l.maxFileSize > 0 {
		body = io.LimitReader(resp.Body, l.maxFileSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if l.maxFileSize > 0 && int64(len(data)) > l.maxFileSize {
		return nil, fmt.Errorf("document too large: more than %d bytes", l.maxFileSize)
	}

	doc, err := l.LoadBytes(data, u.String())
	if err != nil {
		return nil, err
	}
	l.logger.Debug("fetched document", "url", u.Redacted(), "pages", doc.Info.PageCount, "bytes", len(data))
	return doc, nil
}

// LoadBytes validates PDF bytes supplied directly by the caller
func (l *Loader) LoadBytes(data []byte, origin string) (*Document, error) {
	info, err := l.validator.ValidateSource(data)
	if err != nil {
		return nil, err
	}
	return &Document{Kind: KindPDF, Origin: origin, Title: titleFrom(origin), Data: data, Info: info}, nil
}

// LoadBase64 decodes an uploaded PDF given as base64 or a data URL
func (l *Loader) LoadBase64(payload, name string) (*Document, error) {
	if i := strings.IndexByte(payload, ','); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 document: %w", err)
	}
	return l.LoadBytes(data, name)
}

// LoadText wraps plain text as a document
func (l *Loader) LoadText(title, text string) *Document {
	if strings.TrimSpace(title) == "" {
		title = pdf.DefaultDocumentTitle
	}
	return &Document{Kind: KindText, Origin: "text", Title: title, Text: text}
}

func titleFrom(origin string) string {
	name := origin
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, ".pdf")
	name = strings.TrimSuffix(name, ".PDF")
	if name == "" {
		return pdf.DefaultDocumentTitle
	}
	return name
}
