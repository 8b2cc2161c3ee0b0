package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf/wrapper"
)

var pdfMagic = []byte("%PDF-")

// Validator checks that source documents can be signed and exported
type Validator struct {
	maxFileSize int64
	factory     *wrapper.PDFLibraryFactory
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		factory: wrapper.NewPDFLibraryFactoryWithConfig(wrapper.FactoryConfig{
			PreferredLibrary: wrapper.LibraryPDFCPU,
			MaxFileSize:      maxFileSize,
		}),
	}
}

// ValidateFile checks a local PDF and returns its bytes
func (v *Validator) ValidateFile(filePath string) ([]byte, *SourceInfo, error) {
	if filePath == "" {
		return nil, nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read file: %w", err)
	}
	info, err := v.ValidateSource(data)
	if err != nil {
		return nil, nil, err
	}
	info.Path = filePath
	return data, info, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// ValidateSource checks PDF bytes with both parsers. ledongthuc confirms the
// cross-reference structure and pdfcpu supplies the true page sizes used at
// export. The two must agree on the page count
func (v *Validator) ValidateSource(data []byte) (*SourceInfo, error) {
	if len(data) == 0 {
		return nil, signerrors.New(signerrors.ErrorTypeExportFatal, "document is empty")
	}
	if v.maxFileSize > 0 && int64(len(data)) > v.maxFileSize {
		return nil, signerrors.Newf(signerrors.ErrorTypeExportFatal,
			"document too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		return nil, signerrors.New(signerrors.ErrorTypeExportFatal, "document is not a PDF")
	}

	lib, err := v.factory.Create(wrapper.LibraryLedongthuc)
	if err != nil {
		return nil, err
	}
	light, err := lib.Open(data)
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "invalid PDF file", err)
	}
	defer light.Close()
	lightCount, err := light.GetPageCount()
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "invalid PDF page tree", err)
	}

	doc, err := v.factory.Open(data)
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "PDF cannot be opened for stamping", err)
	}
	defer doc.Close()
	count, err := doc.GetPageCount()
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "invalid PDF page tree", err)
	}
	if count < 1 {
		return nil, signerrors.New(signerrors.ErrorTypeExportFatal, "document has no pages")
	}
	if lightCount != count {
		return nil, signerrors.Newf(signerrors.ErrorTypeExportFatal,
			"page count mismatch between parsers: %d vs %d", lightCount, count)
	}

	info := &SourceInfo{Size: int64(len(data)), PageCount: count, PageSizes: make([]geometry.PageSize, 0, count)}
	for page := 1; page <= count; page++ {
		size, err := doc.GetPageSize(page)
		if err != nil {
			return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "cannot read page size", err).WithPage(page)
		}
		info.PageSizes = append(info.PageSizes, geometry.PageSize{Width: size.Width, Height: size.Height})
	}
	return info, nil
}

// IsValidPDF performs a quick check to see if bytes form a usable PDF
func (v *Validator) IsValidPDF(data []byte) bool {
	_, err := v.ValidateSource(data)
	return err == nil
}
