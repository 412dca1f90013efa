// Package presence derives each user's online/offline state from their
// active session count. All mutations for one user are serialized behind a
// per-user lock; the count transition and its change notification form one
// critical section, so observers never see them reordered. Different users
// never contend.
package presence

import (
	"sync"
	"time"

	"nexconnect-server/internal/model"
)

type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entry

	now      func() time.Time
	onChange func(model.PresenceEvent)
}

type entry struct {
	mu       sync.Mutex
	count    int
	lastSeen int64
}

type Options struct {
	Now      func() time.Time
	OnChange func(model.PresenceEvent)
}

func New() *Tracker {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Tracker {
	t := &Tracker{
		entries:  make(map[string]*entry),
		now:      opts.Now,
		onChange: opts.OnChange,
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

func (t *Tracker) entryFor(userID string) *entry {
	t.mu.RLock()
	e := t.entries[userID]
	t.mu.RUnlock()
	if e != nil {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e = t.entries[userID]; e == nil {
		e = &entry{}
		t.entries[userID] = e
	}
	return e
}

// SessionOpened increments the user's active session count. The 0->1
// transition emits an online event.
func (t *Tracker) SessionOpened(userID string) {
	e := t.entryFor(userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.count++
	if e.count == 1 && t.onChange != nil {
		t.onChange(model.PresenceEvent{UserID: userID, Online: true, LastSeen: e.lastSeen})
	}
}

// SessionClosed decrements the count, floored at zero so a double close
// cannot drive it negative. The 1->0 transition records last-seen and emits
// an offline event.
func (t *Tracker) SessionClosed(userID string) {
	e := t.entryFor(userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.count == 0 {
		return
	}
	e.count--
	if e.count == 0 {
		if ts := t.now().UnixMilli(); ts > e.lastSeen {
			e.lastSeen = ts
		}
		if t.onChange != nil {
			t.onChange(model.PresenceEvent{UserID: userID, Online: false, LastSeen: e.lastSeen})
		}
	}
}

func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	e := t.entries[userID]
	t.mu.RUnlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count > 0
}

// LastSeen reports when the user last went offline. The second return is
// false for users never tracked or still in their first online stretch.
func (t *Tracker) LastSeen(userID string) (int64, bool) {
	t.mu.RLock()
	e := t.entries[userID]
	t.mu.RUnlock()
	if e == nil {
		return 0, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastSeen == 0 {
		return 0, false
	}
	return e.lastSeen, true
}

func (t *Tracker) Record(userID string) (model.PresenceRecord, bool) {
	t.mu.RLock()
	e := t.entries[userID]
	t.mu.RUnlock()
	if e == nil {
		return model.PresenceRecord{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return model.PresenceRecord{
		UserID:      userID,
		ActiveCount: e.count,
		LastSeen:    e.lastSeen,
		Online:      e.count > 0,
	}, true
}
