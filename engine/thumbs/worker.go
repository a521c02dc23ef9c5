package thumbs

import (
	"fmt"
	"time"

	"github.com/drummonds/pagestrip/engine/rendercache"
	"github.com/drummonds/pagestrip/engine/renderqueue"
)

// worker drains the queue once and exits. It never waits for new work; the scheduler
// starts a fresh worker on the next submission.
type worker struct {
	id uint64
	s  *Scheduler
}

func (w *worker) run() {
	defer w.s.wg.Done()

	logger := w.s.logger.With("worker", w.id)
	logger.Debug("render worker started")
	start := time.Now()
	done := 0
	for {
		task, ok := w.s.next()
		if !ok {
			break
		}
		result, err := w.render(task)
		if err != nil {
			w.s.failed.Add(1)
			logger.Warn("page render failed", "page", task.PageIndex, "width", task.Width, "height", task.Height, "error", err)
			if w.s.onFailed != nil {
				w.s.onFailed(task.PageIndex, task.Width, task.Height, err)
			}
			continue
		}
		done++
		w.s.rendered.Add(1)
		if w.s.onRendered != nil {
			w.s.onRendered(result, task.PageIndex, task.Width, task.Height)
		}
	}
	logger.Debug("render worker finished", "tasks", done, "elapsed", time.Since(start))
}

// render produces the cached result for one task. A panic in the document backend is
// turned into an error so one bad page cannot stop the drain.
func (w *worker) render(task renderqueue.Task) (result rendercache.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic rendering page %d: %v", task.PageIndex, r)
		}
	}()

	size, err := w.s.src.PageSize(task.PageIndex)
	if err != nil {
		return rendercache.Result{}, fmt.Errorf("page size: %w", err)
	}
	rect := FitInPage(size, task.Width, task.Height)
	if rect.Empty() {
		return rendercache.Result{}, fmt.Errorf("page %d (%gx%g) in %dx%d: %w",
			task.PageIndex, size.Width, size.Height, task.Width, task.Height, ErrEmptyRect)
	}

	if cached, ok := w.s.cache.Get(task.PageIndex); ok && cached.Valid() {
		return cached, nil
	}

	began := time.Now()
	img, err := w.s.src.RenderPage(task.PageIndex, rect.Dx(), rect.Dy())
	if err != nil {
		return rendercache.Result{}, fmt.Errorf("rasterize: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return rendercache.Result{}, ErrNoImage
	}

	result = rendercache.Result{
		Image:      img,
		Rect:       rect,
		Width:      task.Width,
		Height:     task.Height,
		RenderedAt: time.Now(),
		Elapsed:    time.Since(began),
	}
	w.s.cache.Put(task.PageIndex, result)
	return result, nil
}
