package dispatcher_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dshills/ecscli/internal/dispatcher"
)

func TestQueueSubmit(t *testing.T) {
	q := dispatcher.NewQueue(0)

	id1, err := q.Submit("a")
	if err != nil {
		t.Fatalf("Submit error = %v", err)
	}
	id2, _ := q.Submit("b")
	if id1 == "" || id1 == id2 {
		t.Errorf("expected distinct ids, got %q and %q", id1, id2)
	}
	if q.Len() != 2 {
		t.Errorf("Len = %d, want 2", q.Len())
	}
}

func TestQueueCapacity(t *testing.T) {
	q := dispatcher.NewQueue(1)

	if _, err := q.Submit("a"); err != nil {
		t.Fatalf("Submit error = %v", err)
	}
	if _, err := q.Submit("b"); !errors.Is(err, dispatcher.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestQueueClear(t *testing.T) {
	q := dispatcher.NewQueue(0)
	q.Submit("a")
	q.Submit("b")

	if n := q.Clear(); n != 2 {
		t.Errorf("Clear = %d, want 2", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after Clear", q.Len())
	}
}

func TestQueueConcurrentSubmit(t *testing.T) {
	q := dispatcher.NewQueue(0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Submit("line")
			}
		}()
	}
	wg.Wait()

	if q.Len() != 800 {
		t.Errorf("Len = %d, want 800", q.Len())
	}
}
