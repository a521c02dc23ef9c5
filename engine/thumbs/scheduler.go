// Package thumbs schedules page thumbnail renders for a scrollable page strip.
//
// A Scheduler sits between the paint path and a slow rasterizer. Request never blocks:
// it answers from the cache, or records a task in a bounded queue and makes sure a
// single background worker is draining it. The queue admits a fixed number of distinct
// pages and silently evicts the rest, so a fast scrub only pays for the pages that are
// still relevant when the worker gets to them.
package thumbs

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/drummonds/pagestrip/engine/pdfrenderer"
	"github.com/drummonds/pagestrip/engine/rendercache"
	"github.com/drummonds/pagestrip/engine/renderqueue"
)

var (
	// ErrEmptyRect is returned when a page does not fit into a non-empty rectangle
	ErrEmptyRect = errors.New("thumbs: empty target rectangle")
	// ErrNoImage is returned when the rasterizer reports success without an image
	ErrNoImage = errors.New("thumbs: rasterizer returned no image")
)

// Source is the document being shown. Its methods are only ever called from the worker
// goroutine, one call at a time.
type Source interface {
	// PageSize returns the native size of the page
	PageSize(pageIndex int) (pdfrenderer.Size, error)
	// RenderPage rasterizes the page at exactly width x height pixels
	RenderPage(pageIndex, width, height int) (image.Image, error)
}

// RenderedFunc is told about every task that produced a cached result
type RenderedFunc func(result rendercache.Result, pageIndex, width, height int)

// FailedFunc is told about every task whose rasterization failed
type FailedFunc func(pageIndex, width, height int, err error)

// State is the worker lifecycle state
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Options configures a Scheduler. Zero values are usable.
type Options struct {
	// Capacity is the number of distinct pages admitted at once, default renderqueue.DefaultCapacity
	Capacity int
	// Mode picks which page is rendered next and which is evicted
	Mode renderqueue.Mode
	// OnRendered is called from the worker goroutine after each successful task
	OnRendered RenderedFunc
	// OnFailed is called from the worker goroutine after each failed task
	OnFailed FailedFunc
	Logger   *slog.Logger
}

// Stats is a point-in-time view of a Scheduler
type Stats struct {
	State          string `json:"state"`
	Mode           string `json:"mode"`
	Capacity       int    `json:"capacity"`
	WorkersStarted uint64 `json:"workersStarted"`
	Rendered       uint64 `json:"rendered"`
	Failed         uint64 `json:"failed"`
	Evictions      uint64 `json:"evictions"`
	PendingPages   int    `json:"pendingPages"`
	PendingTasks   int    `json:"pendingTasks"`
	Cached         int    `json:"cached"`
}

// Scheduler is the submission side of the render pipeline
type Scheduler struct {
	src        Source
	cache      *rendercache.Cache
	queue      *renderqueue.Queue
	onRendered RenderedFunc
	onFailed   FailedFunc
	logger     *slog.Logger

	// mu orders worker state changes against the queue operations that drive them
	mu     sync.Mutex
	state  State
	closed bool
	wg     sync.WaitGroup

	workersStarted atomic.Uint64
	rendered       atomic.Uint64
	failed         atomic.Uint64
}

// New creates an idle Scheduler rendering pages from src
func New(src Source, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		src:        src,
		cache:      rendercache.New(),
		queue:      renderqueue.New(opts.Capacity, opts.Mode),
		onRendered: opts.OnRendered,
		onFailed:   opts.OnFailed,
		logger:     logger,
	}
}

// Request asks for pageIndex rendered into a width x height box. It returns the cached
// result when there is one. Otherwise it queues a task, unless one is already pending for
// the page, and starts a worker if none is running.
//
// The cache is keyed by page only: a page cached at one size satisfies requests at any
// other size until it is invalidated.
func (s *Scheduler) Request(pageIndex, width, height int) (rendercache.Result, bool) {
	if res, ok := s.cache.Get(pageIndex); ok && res.Valid() {
		return res, true
	}
	if width <= 0 || height <= 0 {
		s.logger.Debug("ignoring render request with empty size", "page", pageIndex, "width", width, "height", height)
		return rendercache.Result{}, false
	}

	s.mu.Lock()
	if s.closed || s.queue.Contains(pageIndex) {
		s.mu.Unlock()
		return rendercache.Result{}, false
	}
	s.queue.Push(renderqueue.Task{PageIndex: pageIndex, Width: width, Height: height})
	start := s.state == Idle
	if start {
		s.state = Running
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if start {
		w := &worker{id: s.workersStarted.Add(1), s: s}
		go w.run()
	}
	return rendercache.Result{}, false
}

// Invalidate drops the cached result for pageIndex so the next Request renders it again
func (s *Scheduler) Invalidate(pageIndex int) {
	s.cache.Delete(pageIndex)
}

// Cache exposes the result cache
func (s *Scheduler) Cache() *rendercache.Cache {
	return s.cache
}

// State returns the current worker state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the running worker, if any, has finished. Do not call it while other
// goroutines are still submitting requests.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close tears the scheduler down: no new worker is started, pending tasks are dropped and
// the cache is cleared. A rasterization already in progress runs to completion.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.queue.Clear()
	s.mu.Unlock()
	s.cache.Clear()
}

// Stats returns counters describing the scheduler
func (s *Scheduler) Stats() Stats {
	return Stats{
		State:          s.State().String(),
		Mode:           s.queue.Mode().String(),
		Capacity:       s.queue.Capacity(),
		WorkersStarted: s.workersStarted.Load(),
		Rendered:       s.rendered.Load(),
		Failed:         s.failed.Load(),
		Evictions:      s.queue.Evictions(),
		PendingPages:   s.queue.Len(),
		PendingTasks:   s.queue.Pending(),
		Cached:         s.cache.Len(),
	}
}

// next hands the worker its next task, or moves the scheduler back to Idle when the
// queue is empty. Both happen under mu so a concurrent Request either sees Running and
// its task is picked up here, or sees Idle and starts a fresh worker.
func (s *Scheduler) next() (renderqueue.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.queue.PollNext()
	if !ok {
		s.state = Idle
	}
	return task, ok
}
