package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// pointsPerInch is the PDF user-space unit density that page bounds are reported in
const pointsPerInch = 72.0

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
	doc      *fitz.Document
	numPages int
}

// NewFitzRenderer opens filename with MuPDF
func NewFitzRenderer(filename string) (*FitzRenderer, error) {
	doc, err := fitz.New(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &FitzRenderer{doc: doc, numPages: doc.NumPage()}, nil
}

// PageCount returns the number of pages in the document
func (r *FitzRenderer) PageCount() int {
	return r.numPages
}

// PageSize returns the page bounds in points
func (r *FitzRenderer) PageSize(pageIndex int) (Size, error) {
	if err := checkPage(pageIndex, r.numPages); err != nil {
		return Size{}, err
	}
	bound, err := r.doc.Bound(pageIndex)
	if err != nil {
		return Size{}, fmt.Errorf("unable to get bounds of page %d: %w", pageIndex, err)
	}
	return Size{Width: float64(bound.Dx()), Height: float64(bound.Dy())}, nil
}

// RenderPage renders at the DPI that makes the page width match width, then resamples to
// the exact requested size to absorb MuPDF's rounding.
func (r *FitzRenderer) RenderPage(pageIndex, width, height int) (image.Image, error) {
	size, err := r.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	if size.Width <= 0 {
		return nil, fmt.Errorf("page %d has zero width", pageIndex)
	}

	dpi := pointsPerInch * float64(width) / size.Width
	img, err := r.doc.ImageDPI(pageIndex, dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex, err)
	}
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		return img, nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// Close releases the MuPDF document
func (r *FitzRenderer) Close() error {
	if r.doc == nil {
		return nil
	}
	err := r.doc.Close()
	r.doc = nil
	return err
}
