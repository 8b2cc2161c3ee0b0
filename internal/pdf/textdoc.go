package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// Layout of a synthesized text document, in PDF points. Baselines are given
// from the bottom of the page
const (
	TextPageWidth  = 595.0
	TextPageHeight = 842.0

	textMargin       = 50.0
	textWrapWidth    = TextPageWidth - 2*textMargin
	textTitleSize    = 18.0
	textTitleY       = 820.0
	textBodySize     = 12.0
	textBodyStartY   = 790.0
	textLineStep     = 21.0
	textBottomMargin = 50.0
	textFont         = "Helvetica"

	// DefaultDocumentTitle is used when a text document has no title
	DefaultDocumentTitle = "Untitled Document"
)

// WrapText breaks text into lines no wider than maxWidth using a greedy fill:
// words are appended while the measured line stays narrower than maxWidth.
// Line breaks in the input are kept and blank lines survive as empty lines.
// A single word wider than maxWidth gets a line of its own
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if measure(candidate) < maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

// SynthesizeTextDocument renders a title and body onto a single A4 page.
// Body lines that would fall below the bottom margin are dropped
func SynthesizeTextDocument(title, body string) ([]byte, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultDocumentTitle
	}
	doc := fpdf.New("P", "pt", "", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("mcp-pdf-signer", true)
	doc.SetTitle(title, true)
	doc.AddPageFormat("P", fpdf.SizeType{Wd: TextPageWidth, Ht: TextPageHeight})
	tr := doc.UnicodeTranslatorFromDescriptor("")

	// fpdf measures y from the top of the page
	top := func(y float64) float64 { return TextPageHeight - y }

	doc.SetFont(textFont, "", textTitleSize)
	doc.Text(textMargin, top(textTitleY), tr(title))

	doc.SetFont(textFont, "", textBodySize)
	measure := func(s string) float64 { return doc.GetStringWidth(tr(s)) }
	y := textBodyStartY
	for _, line := range WrapText(body, textWrapWidth, measure) {
		if y < textBottomMargin {
			break
		}
		if line != "" {
			doc.Text(textMargin, top(y), tr(line))
		}
		y -= textLineStep
	}

	if err := doc.Error(); err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "failed to synthesize text document", err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "failed to write text document", fmt.Errorf("fpdf output: %w", err))
	}
	return buf.Bytes(), nil
}
