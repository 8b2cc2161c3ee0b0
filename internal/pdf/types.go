package pdf

import (
	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
)

// PlaceholderLabel is drawn in place of signed content that cannot be embedded
const PlaceholderLabel = "SIGNATURE"

// SourceInfo describes a validated source document
type SourceInfo struct {
	Path      string              `json:"path,omitempty"`
	Size      int64               `json:"size"`
	PageCount int                 `json:"page_count"`
	PageSizes []geometry.PageSize `json:"page_sizes"`
}

// ExportJob is everything the compositor needs, captured at the instant the
// export was triggered. The compositor never reads session state
type ExportJob struct {
	// Source holds the original PDF. When empty a text document is
	// synthesized from Title and Text
	Source []byte
	Title  string
	Text   string

	Fields []fields.DocumentField

	// Rendered holds each page's on-screen size at export time, indexed by
	// page number minus one
	Rendered []geometry.PageSize
}

// IsText reports whether the job synthesizes its document
func (j ExportJob) IsText() bool {
	return len(j.Source) == 0
}

// ExportResult is the outcome of composing one document
type ExportResult struct {
	Bytes            []byte   `json:"-"`
	PageCount        int      `json:"page_count"`
	EmbedCount       int      `json:"embed_count"`
	PlaceholderCount int      `json:"placeholder_count"`
	SkippedFields    []string `json:"skipped_fields"`
	Warnings         []string `json:"warnings"`
}

// Placement is a field rectangle projected into PDF space: points, origin at
// the bottom-left of its page
type Placement struct {
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// renderedPages adapts a rendered size snapshot to geometry.Heights
type renderedPages []geometry.PageSize

func (r renderedPages) TotalPages() int {
	return len(r)
}

func (r renderedPages) Height(page int) float64 {
	if page < 1 || page > len(r) {
		return 0
	}
	return r[page-1].Height
}

func (r renderedPages) size(page int) (geometry.PageSize, bool) {
	if page < 1 || page > len(r) || r[page-1].Width <= 0 || r[page-1].Height <= 0 {
		return geometry.PageSize{}, false
	}
	return r[page-1], true
}
