package crawler

import (
	"sync"
	"testing"
)

func TestFrontier_Push_Pop_FIFO(t *testing.T) {
	f := NewFrontier(5, 0)

	entries := []Entry{
		{URL: "http://a.test/1", Depth: 0},
		{URL: "http://a.test/2", Depth: 1},
		{URL: "http://a.test/3", Depth: 1},
	}
	for _, e := range entries {
		if !f.Push(e) {
			t.Fatalf("Push(%s) should succeed", e.URL)
		}
	}

	if f.Len() != 3 {
		t.Fatalf("expected length 3, got %d", f.Len())
	}

	for i, want := range entries {
		got, ok := f.Pop()
		if !ok {
			t.Fatalf("Pop() returned false at index %d", i)
		}
		if got.URL != want.URL || got.Depth != want.Depth {
			t.Errorf("Pop()[%d] = %+v, want %+v", i, got, want)
		}
	}
}

func TestFrontier_Pop_Empty(t *testing.T) {
	f := NewFrontier(1, 0)

	if _, ok := f.Pop(); ok {
		t.Error("Pop() on empty frontier should return false")
	}
}

func TestFrontier_Push_DepthBound(t *testing.T) {
	f := NewFrontier(2, 0)

	if !f.Push(Entry{URL: "http://a.test/ok", Depth: 2}) {
		t.Error("entry at the depth bound should be accepted")
	}
	if f.Push(Entry{URL: "http://a.test/deep", Depth: 3}) {
		t.Error("entry beyond the depth bound should be dropped")
	}
	if f.Len() != 1 {
		t.Errorf("dropped entries must not be queued, length %d", f.Len())
	}
}

func TestFrontier_Push_PageBudget(t *testing.T) {
	f := NewFrontier(10, 2)

	if !f.Push(Entry{URL: "http://a.test/1"}) || !f.Push(Entry{URL: "http://a.test/2"}) {
		t.Fatal("pushes within the budget should succeed")
	}
	if f.Push(Entry{URL: "http://a.test/3"}) {
		t.Error("push beyond the page budget should be a no-op")
	}

	// Popping does not refund the budget.
	f.Pop()
	if f.Push(Entry{URL: "http://a.test/4"}) {
		t.Error("budget is counted against accepted entries, not queue length")
	}
}

func TestFrontier_ConcurrentPushPop(t *testing.T) {
	f := NewFrontier(10, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Push(Entry{URL: "http://a.test/x", Depth: 1})
				f.Pop()
			}
		}()
	}
	wg.Wait()
}
