package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	config "github.com/drummonds/pagestrip/config"
	engine "github.com/drummonds/pagestrip/engine"
	"github.com/drummonds/pagestrip/engine/pdfrenderer"
	"github.com/drummonds/pagestrip/engine/renderqueue"
	"github.com/drummonds/pagestrip/engine/thumbs"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

func main() {
	config.LoadEnv()
	defaults := config.LoadServerConfig()

	docPath := flag.String("doc", defaults.DocumentPath, "PDF document to render")
	outDir := flag.String("out", ".", "Directory the thumbnails are written to")
	width := flag.Int("width", defaults.StripMaxWidth, "Strip view width in pixels")
	backend := flag.String("renderer", defaults.RendererBackend, "Renderer backend: pdfium or fitz")
	modeName := flag.String("mode", defaults.QueueMode, "Queue mode: fifo or lifo")
	capacity := flag.Int("capacity", defaults.QueueCapacity, "Distinct pages admitted to the render queue")
	thumbWidth := flag.Int("thumb-width", defaults.ThumbWidth, "Thumbnail width")
	thumbHeight := flag.Int("thumb-height", defaults.ThumbHeight, "Thumbnail height")
	flag.Parse()

	Logger = config.SetupLogging()
	config.Logger = Logger
	engine.Logger = Logger

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("  stripctl - render a PDF thumbnail strip")
	fmt.Println(strings.Repeat("=", 50))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, options{
		docPath:     *docPath,
		outDir:      *outDir,
		viewWidth:   *width,
		backend:     *backend,
		modeName:    *modeName,
		capacity:    *capacity,
		thumbWidth:  *thumbWidth,
		thumbHeight: *thumbHeight,
		padding:     defaults.ThumbPadding,
		maxWidth:    defaults.StripMaxWidth,
	}); err != nil {
		Logger.Error("stripctl failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	docPath     string
	outDir      string
	viewWidth   int
	backend     string
	modeName    string
	capacity    int
	thumbWidth  int
	thumbHeight int
	padding     int
	maxWidth    int
}

func run(ctx context.Context, opts options) error {
	if err := config.CheckDocument(opts.docPath, Logger); err != nil {
		return err
	}
	mode, err := renderqueue.ParseMode(opts.modeName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	renderer, err := pdfrenderer.NewRenderer(opts.backend, opts.docPath)
	if err != nil {
		return err
	}
	defer renderer.Close()

	slots := engine.StripSlots(opts.viewWidth, opts.thumbWidth, opts.padding, opts.maxWidth)
	pages := engine.StripPages(renderer.PageCount(), slots)
	Logger.Info("Rendering strip", "document", opts.docPath, "pages", renderer.PageCount(),
		"slots", slots, "renderer", opts.backend, "mode", mode, "capacity", opts.capacity)

	written, err := renderStrip(ctx, renderer, pages, opts.thumbWidth, opts.thumbHeight, mode, opts.capacity, opts.outDir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d of %d thumbnails to %s\n", written, len(pages), opts.outDir)
	return nil
}

// renderStrip renders pages through a Scheduler and writes each as page-NNNN.png. Pages
// the queue evicts are submitted again on the next round until every page has either
// rendered or failed. It returns the number of thumbnails written.
func renderStrip(ctx context.Context, src thumbs.Source, pages []int, width, height int,
	mode renderqueue.Mode, capacity int, outDir string) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid thumbnail size %dx%d", width, height)
	}
	var (
		mu     sync.Mutex
		failed = map[int]error{}
	)
	sched := thumbs.New(src, thumbs.Options{
		Capacity: capacity,
		Mode:     mode,
		Logger:   Logger,
		OnFailed: func(pageIndex, width, height int, err error) {
			mu.Lock()
			failed[pageIndex] = err
			mu.Unlock()
		},
	})
	defer sched.Close()

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		missing := 0
		for _, page := range pages {
			mu.Lock()
			_, gaveUp := failed[page]
			mu.Unlock()
			if gaveUp {
				continue
			}
			if _, ok := sched.Request(page, width, height); !ok {
				missing++
			}
		}
		if missing == 0 {
			break
		}
		Logger.Debug("Waiting for render round", "round", round, "submitted", missing)
		sched.Wait()
	}

	for page, err := range failed {
		Logger.Warn("Page could not be rendered", "page", page, "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	var written []int
	for _, page := range pages {
		result, ok := sched.Cache().Get(page)
		if !ok || !result.Valid() {
			continue
		}
		written = append(written, page)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := engine.EncodeThumbnail(result, width, height)
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			name := filepath.Join(outDir, fmt.Sprintf("page-%04d.png", page))
			if err := os.WriteFile(name, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	Logger.Info("Strip written", "pages", written, "failed", len(failed))
	return len(written), nil
}
