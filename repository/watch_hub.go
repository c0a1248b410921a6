package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/stepsync/server/models"
)

// watchHub fans step record writes out to in-process subscribers. The SQL
// backend has no native change feed, so Upsert publishes through the hub; the
// Mongo backend uses server-side change streams instead.
type watchHub struct {
	mu   sync.Mutex
	subs map[string]map[chan models.StepRecord]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{subs: map[string]map[chan models.StepRecord]struct{}{}}
}

func watchKey(userID uint, date string) string {
	return fmt.Sprintf("%d/%s", userID, date)
}

// subscribe registers a channel for (user, date) writes. The subscription is
// released and the channel closed when ctx is cancelled.
func (h *watchHub) subscribe(ctx context.Context, userID uint, date string) <-chan models.StepRecord {
	ch := make(chan models.StepRecord, 8)
	key := watchKey(userID, date)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = map[chan models.StepRecord]struct{}{}
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

// publish delivers a written record to current subscribers. Slow subscribers
// drop updates rather than block the writer.
func (h *watchHub) publish(rec models.StepRecord) {
	key := watchKey(rec.UserID, rec.Date)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[key] {
		select {
		case ch <- rec:
		default:
		}
	}
}
