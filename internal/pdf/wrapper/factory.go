package wrapper

import (
	"fmt"
)

// PDFLibraryFactory creates PDF library instances with unified interface
type PDFLibraryFactory struct {
	config FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// PreferredLibrary is used by Open when no library is named
	PreferredLibrary LibraryType `json:"preferred_library"`

	// StrictValidation makes pdfcpu reject documents with spec violations it
	// would otherwise tolerate
	StrictValidation bool `json:"strict_validation"`

	// MaxFileSize limits the size of documents accepted by Open (in bytes)
	MaxFileSize int64 `json:"max_file_size"`
}

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return &PDFLibraryFactory{
		config: FactoryConfig{
			PreferredLibrary: LibraryPDFCPU,
			MaxFileSize:      100 * 1024 * 1024, // 100MB
		},
	}
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration
func NewPDFLibraryFactoryWithConfig(config FactoryConfig) *PDFLibraryFactory {
	if config.PreferredLibrary == "" {
		config.PreferredLibrary = LibraryPDFCPU
	}
	return &PDFLibraryFactory{config: config}
}

// Create instantiates a PDF library of the specified type
func (f *PDFLibraryFactory) Create(libType LibraryType) (PDFLibrary, error) {
	switch libType {
	case LibraryPDFCPU:
		return NewPDFCPULibrary(f.config), nil
	case LibraryLedongthuc:
		return NewLedongthucLibrary(f.config), nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "create",
			Err:     fmt.Errorf("%w: %s", ErrUnsupportedLibrary.Err, libType),
		}
	}
}

// Open parses data with the preferred library
func (f *PDFLibraryFactory) Open(data []byte) (PDFDocument, error) {
	if err := f.checkSize(data); err != nil {
		return nil, err
	}
	lib, err := f.Create(f.config.PreferredLibrary)
	if err != nil {
		return nil, err
	}
	return lib.Open(data)
}

// OpenCanvas parses data for stamping. Only pdfcpu can write
func (f *PDFLibraryFactory) OpenCanvas(data []byte) (Canvas, error) {
	if err := f.checkSize(data); err != nil {
		return nil, err
	}
	doc, err := NewPDFCPULibrary(f.config).OpenCanvas(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetConfig returns the factory configuration
func (f *PDFLibraryFactory) GetConfig() FactoryConfig {
	return f.config
}

func (f *PDFLibraryFactory) checkSize(data []byte) error {
	if f.config.MaxFileSize > 0 && int64(len(data)) > f.config.MaxFileSize {
		return &WrapperError{
			Library: f.config.PreferredLibrary,
			Op:      "open",
			Err:     fmt.Errorf("document size %d exceeds maximum %d", len(data), f.config.MaxFileSize),
		}
	}
	return nil
}
