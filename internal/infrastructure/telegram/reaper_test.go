package telegram

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingDeleter struct {
	mu      sync.Mutex
	deleted []int
}

func (d *recordingDeleter) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, messageID)
	return nil
}

func TestReaperDeletesOnlyDueMessages(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	del := &recordingDeleter{}
	r := NewReaper(del, time.Hour)
	r.now = func() time.Time { return base }

	r.Schedule(-1, 1, 10*time.Second)
	r.Schedule(-1, 2, time.Minute)
	r.Schedule(-1, 3, 5*time.Second)

	r.reap(context.Background(), base.Add(10*time.Second))
	if len(del.deleted) != 2 || del.deleted[0] != 1 || del.deleted[1] != 3 {
		t.Fatalf("unexpected deletions: %v", del.deleted)
	}
	if r.Pending() != 1 {
		t.Fatalf("expected one pending message, got %d", r.Pending())
	}
}

func TestReaperStartStop(t *testing.T) {
	t.Parallel()

	del := &recordingDeleter{}
	r := NewReaper(del, 5*time.Millisecond)
	r.Schedule(-1, 1, 0)
	r.Schedule(-1, 2, time.Hour)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for r.Pending() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	del.mu.Lock()
	defer del.mu.Unlock()
	if len(del.deleted) != 2 {
		t.Fatalf("expected both messages deleted after stop, got %v", del.deleted)
	}
}
