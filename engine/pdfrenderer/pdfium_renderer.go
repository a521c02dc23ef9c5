package pdfrenderer

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
	doc      references.FPDF_DOCUMENT
	numPages int
}

// NewPDFiumRenderer opens filename in a single-worker PDFium WebAssembly pool
func NewPDFiumRenderer(filename string) (*PDFiumRenderer, error) {
	pdfBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read PDF file: %w", err)
	}

	// One instance is enough: only the thumbnail worker renders, one page at a time
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCountResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		pool.Close()
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
		doc:      doc.Document,
		numPages: pageCountResp.PageCount,
	}, nil
}

// PageCount returns the number of pages in the document
func (r *PDFiumRenderer) PageCount() int {
	return r.numPages
}

// PageSize returns the page size in points
func (r *PDFiumRenderer) PageSize(pageIndex int) (Size, error) {
	if err := checkPage(pageIndex, r.numPages); err != nil {
		return Size{}, err
	}
	resp, err := r.instance.FPDF_GetPageSizeByIndex(&requests.FPDF_GetPageSizeByIndex{
		Document: r.doc,
		Index:    pageIndex,
	})
	if err != nil {
		return Size{}, fmt.Errorf("unable to get size of page %d: %w", pageIndex, err)
	}
	return Size{Width: resp.Width, Height: resp.Height}, nil
}

// RenderPage renders one page at exactly width x height pixels
func (r *PDFiumRenderer) RenderPage(pageIndex, width, height int) (image.Image, error) {
	if err := checkPage(pageIndex, r.numPages); err != nil {
		return nil, err
	}
	pageRender, err := r.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: r.doc,
				Index:    pageIndex,
			},
		},
		Width:  width,
		Height: height,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex, err)
	}
	// The image is backed by WebAssembly memory released by Cleanup
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()
	return img, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	if r.instance != nil && r.doc != "" {
		r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
			Document: r.doc,
		})
	}
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.instance = nil
	r.doc = ""
	return nil
}
