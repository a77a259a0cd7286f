// Package feed layers client-side state over the forum backend: cursor
// pagination with cancellation-on-supersede, a keyed cache of page sequences,
// and the mutation/invalidation contract. The server stays the sole authority
// on ordering, uniqueness and counts; nothing here re-sorts, de-duplicates or
// optimistically patches fetched data.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Seyves/SnakesSsSs/pkg/forum"
)

// Query is the identity of a paginated listing: changing either field
// restarts pagination from offset zero.
type Query struct {
	Sort   forum.SortType
	Search string
}

// NewQuery normalizes the parameters: the search term is trimmed (an empty
// search is a valid "no filter") and a missing sort falls back to the
// server's default ordering.
func NewQuery(sort forum.SortType, search string) Query {
	if sort == "" {
		sort = forum.SortDateAsc
	}
	return Query{Sort: sort, Search: strings.TrimSpace(search)}
}

// Key returns the cache key for the identity.
func (q Query) Key() string {
	return fmt.Sprintf("sortBy=%s&search=%s", q.Sort, q.Search)
}

// Status describes the cached state of a page sequence.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

// PageFunc fetches one page for a query identity at the given offset. It
// returns the page items and the next offset, nil when the collection is
// exhausted.
type PageFunc[T any] func(ctx context.Context, q Query, offset int) ([]T, *int, error)

// Pager accumulates pages for a single query identity. Pages are concatenated
// in fetch order; page N+1 is never requested while page N is still in
// flight. When the identity changes, accumulated pages are discarded and a
// response still in flight for the old identity is thrown away on arrival.
type Pager[T any] struct {
	fetch PageFunc[T]

	mu        sync.Mutex
	query     Query
	gen       uint64
	cancel    context.CancelFunc
	inflight  bool
	started   bool
	items     []T
	next      *int
	status    Status
	fetchedAt time.Time
}

func NewPager[T any](q Query, fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, query: NewQuery(q.Sort, q.Search)}
}

// Query returns the current query identity.
func (p *Pager[T]) Query() Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// SetQuery switches the pager to a new query identity. A no-op when the
// normalized identity is unchanged; otherwise all accumulated pages are
// discarded and pagination restarts at offset zero on the next More call.
func (p *Pager[T]) SetQuery(q Query) {
	q = NewQuery(q.Sort, q.Search)

	p.mu.Lock()
	defer p.mu.Unlock()

	if q == p.query {
		return
	}
	p.query = q
	p.resetLocked()
}

// Reset discards all accumulated pages so the next More call refetches the
// first page. An in-flight fetch is cancelled and its result discarded.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Pager[T]) resetLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.inflight = false
	p.started = false
	p.items = nil
	p.next = nil
	p.status = StatusIdle
	p.fetchedAt = time.Time{}
}

// Items returns the accumulated sequence in fetch order.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]T, len(p.items))
	copy(items, p.items)
	return items
}

// HasMore reports whether another page can be fetched: true until the first
// page has been loaded, then true while the server keeps returning a next
// offset.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return true
	}
	return p.next != nil
}

func (p *Pager[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// FetchedAt returns the commit time of the most recent page, zero if no page
// has been committed for the current identity.
func (p *Pager[T]) FetchedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchedAt
}

// More fetches the next page and appends it to the accumulated sequence.
// It is a no-op while a fetch is already outstanding (the "show more" trigger
// stays disabled) and once the collection is exhausted. A fetch superseded by
// Reset or SetQuery is discarded without error.
func (p *Pager[T]) More(ctx context.Context) error {
	p.mu.Lock()

	if p.inflight || (p.started && p.next == nil) {
		p.mu.Unlock()
		return nil
	}

	offset := 0
	if p.started {
		offset = *p.next
	}

	gen := p.gen
	query := p.query
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.inflight = true
	p.status = StatusLoading
	p.mu.Unlock()

	items, next, err := p.fetch(fetchCtx, query, offset)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		// Superseded while in flight: the old identity's response must not
		// leak into the new sequence, and cancellation is not an error.
		return nil
	}

	p.inflight = false
	p.cancel = nil

	if err != nil {
		p.status = StatusFailed
		return err
	}

	p.items = append(p.items, items...)
	p.next = next
	p.started = true
	p.status = StatusReady
	p.fetchedAt = time.Now()

	return nil
}
