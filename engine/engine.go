package engine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/drummonds/pagestrip/engine/pdfrenderer"
	"github.com/drummonds/pagestrip/engine/rendercache"
	"github.com/drummonds/pagestrip/engine/renderqueue"
	"github.com/drummonds/pagestrip/engine/thumbs"
)

// RendererFunc opens a document with the named backend
type RendererFunc func(backend, filename string) (pdfrenderer.Renderer, error)

// openDocument is one opened revision of the configured PDF and the scheduler feeding
// thumbnails from it. It is replaced as a whole when the file changes.
type openDocument struct {
	path      string
	modTime   time.Time
	pageCount int
	renderer  pdfrenderer.Renderer
	scheduler *thumbs.Scheduler
	log       *renderLog // nil without a database
}

// close drops pending work and the cache, then releases the renderer once the worker is done with it
func (doc *openDocument) close() {
	doc.scheduler.Close()
	doc.scheduler.Wait()
	if doc.log != nil {
		doc.log.close()
	}
	if err := doc.renderer.Close(); err != nil {
		Logger.Warn("Failed to close renderer", "path", doc.path, "error", err)
	}
}

func (serverHandler *ServerHandler) currentDocument() *openDocument {
	serverHandler.mu.RLock()
	defer serverHandler.mu.RUnlock()
	return serverHandler.doc
}

// OpenDocument opens the configured document and swaps it in for the current one. The
// previous document's scheduler is closed and its renderer released.
func (serverHandler *ServerHandler) OpenDocument() error {
	serverConfig := serverHandler.ServerConfig
	path := serverConfig.DocumentPath

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	mode, err := renderqueue.ParseMode(serverConfig.QueueMode)
	if err != nil {
		return err
	}

	openRenderer := serverHandler.OpenRenderer
	if openRenderer == nil {
		openRenderer = pdfrenderer.NewRenderer
	}
	renderer, err := openRenderer(serverConfig.RendererBackend, path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}

	doc := &openDocument{
		path:      path,
		modTime:   info.ModTime(),
		pageCount: renderer.PageCount(),
		renderer:  renderer,
	}
	if serverHandler.DB != nil {
		doc.log = newRenderLog(serverHandler.DB, path)
	}
	onRendered, onFailed := doc.log.callbacks()
	doc.scheduler = thumbs.New(renderer, thumbs.Options{
		Capacity:   serverConfig.QueueCapacity,
		Mode:       mode,
		OnRendered: onRendered,
		OnFailed:   onFailed,
		Logger:     Logger,
	})

	serverHandler.mu.Lock()
	previous := serverHandler.doc
	serverHandler.doc = doc
	serverHandler.mu.Unlock()

	Logger.Info("Document opened", "path", path, "pages", doc.pageCount,
		"renderer", serverConfig.RendererBackend, "mode", mode, "capacity", serverConfig.QueueCapacity)

	if previous != nil {
		previous.close()
	}
	return nil
}

// CloseDocument closes the current document, if any
func (serverHandler *ServerHandler) CloseDocument() {
	serverHandler.mu.Lock()
	doc := serverHandler.doc
	serverHandler.doc = nil
	serverHandler.mu.Unlock()
	if doc != nil {
		doc.close()
	}
}

// ComposeThumbnail places a rendered page on a white width x height canvas. A result
// rendered for this box is pasted at its fit rectangle; one rendered for a different box
// is refitted and centered.
func ComposeThumbnail(result rendercache.Result, width, height int) image.Image {
	canvas := imaging.New(width, height, color.White)
	if !result.Valid() {
		return canvas
	}
	if result.Width == width && result.Height == height {
		return imaging.Paste(canvas, result.Image, result.Rect.Min)
	}
	fitted := imaging.Fit(result.Image, width, height, imaging.Lanczos)
	return imaging.PasteCenter(canvas, fitted)
}

// EncodeThumbnail composes the thumbnail and encodes it as PNG
func EncodeThumbnail(result rendercache.Result, width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, ComposeThumbnail(result, width, height), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
