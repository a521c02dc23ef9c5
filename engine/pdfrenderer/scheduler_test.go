package pdfrenderer_test

import (
	"testing"

	"github.com/drummonds/pagestrip/engine/pdfrenderer"
	"github.com/drummonds/pagestrip/engine/thumbs"
)

func TestRendererDrivesScheduler(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDF backend integration test in short mode")
	}
	path := pdfrenderer.WriteTestPDF(t, [2]int{200, 100}, [2]int{100, 200}, [2]int{100, 100})
	r, err := pdfrenderer.NewRenderer(pdfrenderer.BackendFitz, path)
	if err != nil {
		t.Fatalf("Failed to open test PDF: %v", err)
	}
	defer r.Close()

	size, err := r.PageSize(1)
	if err != nil {
		t.Fatalf("Failed to get page size: %v", err)
	}
	if rect := thumbs.FitInPage(size, 60, 80); rect.Dx() != 40 || rect.Dy() != 80 {
		t.Errorf("Expected a 40x80 fit for a 100x200 page, got %v", rect)
	}

	s := thumbs.New(r, thumbs.Options{})
	for page := 0; page < r.PageCount(); page++ {
		s.Request(page, 60, 80)
	}
	s.Wait()

	for page := 0; page < r.PageCount(); page++ {
		res, ok := s.Request(page, 60, 80)
		if !ok {
			t.Errorf("Page %d was not rendered", page)
			continue
		}
		if res.Image.Bounds().Dx() != res.Rect.Dx() {
			t.Errorf("Page %d raster width %d does not match fit rect %v", page, res.Image.Bounds().Dx(), res.Rect)
		}
	}
}
