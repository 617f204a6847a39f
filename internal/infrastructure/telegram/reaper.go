package telegram

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultReapInterval = time.Second

type messageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

type pendingDeletion struct {
	chatID    int64
	messageID int
	due       time.Time
}

// Reaper deletes temporary messages once their time is up.
// Whatever is still pending when it stops is deleted right away.
type Reaper struct {
	deleter  messageDeleter
	interval time.Duration
	now      func() time.Time
	logger   *log.Entry

	mu      sync.Mutex
	pending []pendingDeletion

	runMutex  sync.Mutex
	started   bool
	runCancel context.CancelFunc
	workersWg sync.WaitGroup
}

func NewReaper(deleter messageDeleter, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = defaultReapInterval
	}
	return &Reaper{
		deleter:  deleter,
		interval: interval,
		now:      time.Now,
		logger:   log.WithField("object", "MessageReaper"),
	}
}

func (r *Reaper) Schedule(chatID int64, messageID int, after time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pendingDeletion{
		chatID:    chatID,
		messageID: messageID,
		due:       r.now().Add(after),
	})
}

func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Reaper) Start(ctx context.Context) error {
	r.runMutex.Lock()
	defer r.runMutex.Unlock()
	if r.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.runCancel = cancel
	r.started = true

	r.workersWg.Add(1)
	go func() {
		defer r.workersWg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.reap(runCtx, r.now())
			}
		}
	}()
	return nil
}

func (r *Reaper) Stop(ctx context.Context) error {
	r.runMutex.Lock()
	if r.started {
		r.runCancel()
		r.started = false
	}
	r.runMutex.Unlock()

	done := make(chan struct{})
	go func() {
		r.workersWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.reap(ctx, time.Time{})
	return nil
}

// reap deletes every entry due at now. A zero now flushes everything.
func (r *Reaper) reap(ctx context.Context, now time.Time) {
	r.mu.Lock()
	var due []pendingDeletion
	keep := r.pending[:0]
	for _, p := range r.pending {
		if now.IsZero() || !p.due.After(now) {
			due = append(due, p)
			continue
		}
		keep = append(keep, p)
	}
	r.pending = keep
	r.mu.Unlock()

	for _, p := range due {
		if err := r.deleter.DeleteMessage(ctx, p.chatID, p.messageID); err != nil {
			r.logger.WithError(err).WithFields(log.Fields{
				"chat_id":    p.chatID,
				"message_id": p.messageID,
			}).Warn("cant delete temporary message")
		}
	}
}
