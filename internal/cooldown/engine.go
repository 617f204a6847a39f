// Package cooldown decides what happens to media posted in group chats.
//
// An Engine keeps, per user, the join time, the time of the last allowed media
// message and whether the user has already been warned during the current
// violation streak, plus a set of users exempt from all checks.
// Nothing here performs I/O: callers pass the current time in and act on the
// returned Decision.
//
// State lives in process memory only. Restarting the bot forgets every join
// window, every cooldown and the whole immunity list.
// Expiry is lazy: stale entries are simply outside their windows on the next
// lookup, there is no background sweeper.
package cooldown

import (
	"sort"
	"sync"
	"time"

	"github.com/rottengram/rottenshield/internal/mapofmu"
)

const (
	DefaultNewMemberWindow = 30 * time.Minute
	DefaultMediaInterval   = 60 * time.Second
)

type Options struct {
	NewMemberWindow time.Duration
	MediaInterval   time.Duration
}

func DefaultOptions() Options {
	return Options{
		NewMemberWindow: DefaultNewMemberWindow,
		MediaInterval:   DefaultMediaInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.NewMemberWindow <= 0 {
		o.NewMemberWindow = DefaultNewMemberWindow
	}
	if o.MediaInterval <= 0 {
		o.MediaInterval = DefaultMediaInterval
	}
	return o
}

type userState struct {
	joinedAt  time.Time
	joined    bool
	lastMedia time.Time
	hasMedia  bool
	warned    bool
}

// Engine is safe for concurrent use. Operations on one user are serialized,
// operations on different users run in parallel.
type Engine struct {
	opts  Options
	locks *mapofmu.M[int64]

	usersMu sync.Mutex
	users   map[int64]*userState

	immuneMu sync.RWMutex
	immune   map[int64]struct{}
}

func NewEngine(opts Options) *Engine {
	return &Engine{
		opts:   opts.withDefaults(),
		locks:  mapofmu.New[int64](),
		users:  make(map[int64]*userState),
		immune: make(map[int64]struct{}),
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Classify decides the fate of one media message sent by userID at now.
// Only group and supergroup chats are moderated, anything else is ignored
// without touching state.
func (e *Engine) Classify(userID int64, kind ChatKind, now time.Time) Decision {
	if !kind.moderated() {
		return Decision{Kind: Ignore}
	}

	unlock := e.locks.Lock(userID)
	defer unlock.Unlock()

	if e.IsImmune(userID) {
		return Decision{Kind: Ignore}
	}

	st := e.state(userID)

	// the join window takes precedence and leaves the media timestamp alone
	if st.joined && within(now, st.joinedAt, e.opts.NewMemberWindow) {
		return st.suppress(KeyNewMemberMedia)
	}

	if st.hasMedia && within(now, st.lastMedia, e.opts.MediaInterval) {
		return st.suppress(KeyMediaCooldown)
	}

	st.lastMedia = now
	st.hasMedia = true
	st.warned = false
	return Decision{Kind: Allow}
}

// RegisterJoin starts the new-member window for userID, overwriting any earlier join.
func (e *Engine) RegisterJoin(userID int64, now time.Time) {
	unlock := e.locks.Lock(userID)
	defer unlock.Unlock()

	st := e.state(userID)
	st.joinedAt = now
	st.joined = true
}

// SetImmune adds or removes userID from the immunity set. Repeated calls are no-ops.
func (e *Engine) SetImmune(userID int64, on bool) {
	unlock := e.locks.Lock(userID)
	defer unlock.Unlock()

	e.setImmune(userID, on)
}

// ToggleImmune flips membership atomically and reports the new state.
func (e *Engine) ToggleImmune(userID int64) bool {
	unlock := e.locks.Lock(userID)
	defer unlock.Unlock()

	on := !e.IsImmune(userID)
	e.setImmune(userID, on)
	return on
}

func (e *Engine) IsImmune(userID int64) bool {
	e.immuneMu.RLock()
	defer e.immuneMu.RUnlock()
	_, ok := e.immune[userID]
	return ok
}

// ListImmune returns a snapshot of the immunity set in ascending ID order.
func (e *Engine) ListImmune() []int64 {
	e.immuneMu.RLock()
	ids := make([]int64, 0, len(e.immune))
	for id := range e.immune {
		ids = append(ids, id)
	}
	e.immuneMu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) setImmune(userID int64, on bool) {
	e.immuneMu.Lock()
	defer e.immuneMu.Unlock()
	if on {
		e.immune[userID] = struct{}{}
		return
	}
	delete(e.immune, userID)
}

// state must be called with the user's lock held.
func (e *Engine) state(userID int64) *userState {
	e.usersMu.Lock()
	defer e.usersMu.Unlock()
	st, ok := e.users[userID]
	if !ok {
		st = &userState{}
		e.users[userID] = st
	}
	return st
}

func (st *userState) suppress(key MessageKey) Decision {
	if st.warned {
		return Decision{Kind: Delete}
	}
	st.warned = true
	return Decision{Kind: DeleteAndWarn, MessageKey: key}
}

// within reports whether now is less than window after since.
// A clock running backwards counts as zero elapsed time.
func within(now, since time.Time, window time.Duration) bool {
	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed < window
}
