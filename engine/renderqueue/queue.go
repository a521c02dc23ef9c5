// Package renderqueue holds pending page-render tasks behind a bounded admission ledger.
//
// The queue caps the number of distinct pages in flight rather than the number of tasks.
// When a new page arrives and the ledger is full, one admitted page is evicted together
// with every task still pending for it. Eviction is silent: it is the backpressure
// mechanism for fast scrolling, not an error.
package renderqueue

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the number of distinct pages admitted when no capacity is given
const DefaultCapacity = 4

// Mode selects both the page that is serviced next and the page that is evicted
type Mode int

const (
	// FIFO services and evicts the oldest admitted page
	FIFO Mode = iota
	// LIFO services and evicts the most recently admitted page
	LIFO
)

func (m Mode) String() string {
	switch m {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a config string into a Mode. "filo" is accepted as an alias of lifo.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo":
		return FIFO, nil
	case "lifo", "filo":
		return LIFO, nil
	default:
		return LIFO, fmt.Errorf("unknown queue mode %q (want fifo or lifo)", s)
	}
}

// Task is a single request to render a page into a width x height box
type Task struct {
	PageIndex int `json:"page"`
	Width     int `json:"width"`
	Height    int `json:"height"`
}

// Queue is a set of per-page FIFO sub-queues plus a bounded, page-deduplicated ledger.
// All methods are safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	capacity int
	mode     Mode
	ledger   []int          // admitted pages, oldest first
	pending  map[int][]Task // page -> tasks in arrival order; present iff page is in ledger

	evictions atomic.Uint64
}

// New creates a queue admitting at most capacity distinct pages.
// A capacity below 1 falls back to DefaultCapacity.
func New(capacity int, mode Mode) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{
		capacity: capacity,
		mode:     mode,
		ledger:   make([]int, 0, capacity),
		pending:  make(map[int][]Task, capacity),
	}
}

// Capacity returns the maximum number of distinct pages admitted at once
func (q *Queue) Capacity() int { return q.capacity }

// Mode returns the selection policy the queue was built with
func (q *Queue) Mode() Mode { return q.mode }

// Contains reports whether page is currently admitted
func (q *Queue) Contains(page int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[page]
	return ok
}

// Push appends task to its page's sub-queue. A page that is already admitted never
// triggers an eviction. A new page arriving at a full ledger first evicts the oldest (FIFO)
// or newest (LIFO) admitted page and drops all of that page's pending tasks.
func (q *Queue) Push(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	page := task.PageIndex
	if tasks, ok := q.pending[page]; ok {
		q.pending[page] = append(tasks, task)
		return
	}

	if len(q.ledger) >= q.capacity {
		q.evictLocked()
	}
	q.ledger = append(q.ledger, page)
	q.pending[page] = []Task{task}
}

// PollNext removes and returns the head task of the active page. The active page is the
// oldest admitted page in FIFO mode and the newest in LIFO mode. It returns false when
// nothing is admitted and never blocks.
func (q *Queue) PollNext() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ledger) == 0 {
		return Task{}, false
	}

	idx := q.activeIndexLocked()
	page := q.ledger[idx]
	tasks := q.pending[page]
	task := tasks[0]
	if len(tasks) == 1 {
		delete(q.pending, page)
		q.removeLedgerLocked(idx)
	} else {
		tasks[0] = Task{}
		q.pending[page] = tasks[1:]
	}
	return task, true
}

// Len returns the number of admitted pages
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ledger)
}

// Pending returns the total number of queued tasks across all admitted pages
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, tasks := range q.pending {
		n += len(tasks)
	}
	return n
}

// Pages returns a snapshot of the admitted pages, oldest first
func (q *Queue) Pages() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]int, len(q.ledger))
	copy(out, q.ledger)
	return out
}

// Evictions returns how many pages have been evicted since the queue was created
func (q *Queue) Evictions() uint64 {
	return q.evictions.Load()
}

// Clear drops every admitted page and its pending tasks. Cleared pages are not counted as
// evictions.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ledger = q.ledger[:0]
	clear(q.pending)
}

func (q *Queue) activeIndexLocked() int {
	if q.mode == FIFO {
		return 0
	}
	return len(q.ledger) - 1
}

func (q *Queue) evictLocked() {
	idx := q.activeIndexLocked()
	victim := q.ledger[idx]
	delete(q.pending, victim)
	q.removeLedgerLocked(idx)
	q.evictions.Add(1)
}

func (q *Queue) removeLedgerLocked(idx int) {
	copy(q.ledger[idx:], q.ledger[idx+1:])
	q.ledger = q.ledger[:len(q.ledger)-1]
}
