package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"strings"

)

var (
	// ErrPageOutOfRange is returned for page indices outside [0, PageCount)
	ErrPageOutOfRange = errors.New("page index out of range")
	// ErrUnknownBackend is returned by NewRenderer for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown renderer backend")
)

// Size is a page's native size, in PDF points
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Renderer is an open PDF document that can report page geometry and rasterize single
// pages. Implementations are not required to be safe for concurrent use; the thumbnail
// worker calls them from one goroutine.
type Renderer interface {
	// PageCount returns the number of pages in the document
	PageCount() int

	// PageSize returns the native page size in points
	PageSize(pageIndex int) (Size, error)

	// RenderPage rasterizes one page at exactly width x height pixels
	RenderPage(pageIndex, width, height int) (image.Image, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// Backend names accepted by NewRenderer
const (
	BackendPDFium = "pdfium"
	BackendFitz   = "fitz"
)

// NewRenderer opens filename with the named backend. PDFium (WebAssembly, no CGo) is the
// default when backend is empty.
func NewRenderer(backend, filename string) (Renderer, error) {
	switch strings.ToLower(backend) {
	case "", BackendPDFium:
		return NewPDFiumRenderer(filename)
	case BackendFitz:
		return NewFitzRenderer(filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func checkPage(pageIndex, pageCount int) error {
	if pageIndex < 0 || pageIndex >= pageCount {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageIndex, pageCount)
	}
	return nil
}
