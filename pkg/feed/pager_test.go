package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Seyves/SnakesSsSs/pkg/forum"
)

func intPtr(v int) *int { return &v }

func TestPagerMergesPagesInFetchOrder(t *testing.T) {
	pages := [][]int{{1, 2}, {3}}
	nexts := []*int{intPtr(2), nil}
	var calls int

	p := NewPager(NewQuery(forum.SortDateDesc, ""), func(ctx context.Context, q Query, offset int) ([]int, *int, error) {
		i := calls
		calls++
		return pages[i], nexts[i], nil
	})

	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() page 1 returned error: %v", err)
	}
	if !p.HasMore() {
		t.Fatal("want HasMore after page with next offset")
	}
	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() page 2 returned error: %v", err)
	}

	got := p.Items()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("want merged items %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want merged items %v, got %v", want, got)
		}
	}

	if p.HasMore() {
		t.Error("want no further fetches after final page")
	}

	// Exhausted pager: More must be a no-op.
	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() after exhaustion returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("want 2 fetches, got %d", calls)
	}
}

func TestPagerEmptyCollection(t *testing.T) {
	var calls int
	p := NewPager(NewQuery(forum.SortDateAsc, ""), func(ctx context.Context, q Query, offset int) ([]int, *int, error) {
		calls++
		return nil, nil, nil
	})

	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() returned error: %v", err)
	}

	if len(p.Items()) != 0 {
		t.Errorf("want zero items, got %v", p.Items())
	}
	if p.HasMore() {
		t.Error("want HasMore false for empty collection")
	}
	if p.Status() != StatusReady {
		t.Errorf("want StatusReady, got %v", p.Status())
	}
	if calls != 1 {
		t.Errorf("want 1 fetch, got %d", calls)
	}
}

func TestPagerSingleFetchInFlight(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var calls int

	p := NewPager(NewQuery(forum.SortDateAsc, ""), func(ctx context.Context, q Query, offset int) ([]int, *int, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return []int{1}, nil, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.More(context.Background())
	}()

	// Wait until the first fetch is underway.
	for {
		mu.Lock()
		started := calls == 1
		mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// The trigger is disabled while a fetch is outstanding.
	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() while in flight returned error: %v", err)
	}

	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("want 1 fetch while first is outstanding, got %d", calls)
	}
}

func TestPagerQueryIdentityReset(t *testing.T) {
	type fetchRecord struct {
		query  Query
		offset int
	}

	release := make(chan struct{})
	var mu sync.Mutex
	var records []fetchRecord

	p := NewPager(NewQuery(forum.SortDateDesc, ""), func(ctx context.Context, q Query, offset int) ([]int, *int, error) {
		mu.Lock()
		records = append(records, fetchRecord{q, offset})
		n := len(records)
		mu.Unlock()

		if n == 1 {
			// Old identity's fetch: held until after the identity changed.
			<-release
			return []int{1, 2}, intPtr(2), nil
		}
		return []int{9}, nil, nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.More(context.Background())
	}()

	for {
		mu.Lock()
		started := len(records) == 1
		mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// Supersede the outstanding fetch: its response must be discarded.
	p.SetQuery(Query{Sort: forum.SortDateDesc, Search: "x"})
	close(release)
	<-done

	if got := p.Items(); len(got) != 0 {
		t.Fatalf("want stale response discarded, got items %v", got)
	}

	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() for new identity returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	last := records[len(records)-1]
	if last.offset != 0 {
		t.Errorf("want new identity to start at offset 0, got %d", last.offset)
	}
	if last.query.Search != "x" {
		t.Errorf("want fetch for new identity %q, got %q", "x", last.query.Search)
	}

	got := p.Items()
	if len(got) != 1 || got[0] != 9 {
		t.Errorf("want items [9] for new identity, got %v", got)
	}
}

func TestPagerSetQuerySameIdentityKeepsPages(t *testing.T) {
	var calls int
	p := NewPager(NewQuery(forum.SortDateDesc, "go"), func(ctx context.Context, q Query, offset int) ([]int, *int, error) {
		calls++
		return []int{1}, nil, nil
	})

	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() returned error: %v", err)
	}

	// Whitespace-only difference normalizes to the same identity.
	p.SetQuery(Query{Sort: forum.SortDateDesc, Search: "  go  "})

	if len(p.Items()) != 1 {
		t.Errorf("want pages kept for unchanged identity, got %v", p.Items())
	}
	if calls != 1 {
		t.Errorf("want 1 fetch, got %d", calls)
	}
}

func TestPagerFailedFetch(t *testing.T) {
	wantErr := errors.New("boom")
	var calls int

	p := NewPager(NewQuery(forum.SortDateAsc, ""), func(ctx context.Context, q Query, offset int) ([]int, *int, error) {
		calls++
		if calls == 1 {
			return nil, nil, wantErr
		}
		if offset != 0 {
			t.Errorf("want retry at offset 0, got %d", offset)
		}
		return []int{5}, nil, nil
	})

	if err := p.More(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("want fetch error %v, got %v", wantErr, err)
	}
	if p.Status() != StatusFailed {
		t.Errorf("want StatusFailed, got %v", p.Status())
	}
	if len(p.Items()) != 0 {
		t.Errorf("want no items after failed fetch, got %v", p.Items())
	}

	// The failed page was not committed, so the next More retries it.
	if err := p.More(context.Background()); err != nil {
		t.Fatalf("More() retry returned error: %v", err)
	}
	if len(p.Items()) != 1 {
		t.Errorf("want 1 item after retry, got %v", p.Items())
	}
}
