package identity

import (
	"context"
	"sync"
)

// State is the auth state of a client session.
type State string

const (
	StateCheckingAuth  State = "checking_auth"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

// Snapshot is what subscribers receive on every transition.
type Snapshot struct {
	State    State
	Identity Identity
}

// Tracker is the client-side auth state machine.  It starts in
// StateCheckingAuth and moves to StateAnonymous or StateAuthenticated as the
// identity provider answers.  Listeners are called synchronously, in
// subscription order, after the state has changed.
type Tracker struct {
	mu        sync.Mutex
	snap      Snapshot
	nextID    int
	listeners map[int]func(Snapshot)
	order     []int
}

// NewTracker returns a tracker in StateCheckingAuth.
func NewTracker() *Tracker {
	return &Tracker{
		snap:      Snapshot{State: StateCheckingAuth},
		listeners: make(map[int]func(Snapshot)),
	}
}

// Current returns the present snapshot.
func (t *Tracker) Current() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// CurrentIdentity makes the tracker usable as a Provider.  While the check
// is still running the caller is treated as anonymous.
func (t *Tracker) CurrentIdentity(context.Context) Identity {
	snap := t.Current()
	if snap.State != StateAuthenticated {
		return Anonymous
	}
	return snap.Identity
}

// Resolve records the provider's answer.  Anonymous moves to
// StateAnonymous, anything else to StateAuthenticated.
func (t *Tracker) Resolve(id Identity) {
	if id.IsAnonymous() {
		t.set(Snapshot{State: StateAnonymous})
		return
	}
	t.set(Snapshot{State: StateAuthenticated, Identity: id})
}

// SignOut drops the identity.
func (t *Tracker) SignOut() { t.set(Snapshot{State: StateAnonymous}) }

// Recheck returns to StateCheckingAuth, e.g. when a stored session must be
// validated again.
func (t *Tracker) Recheck() { t.set(Snapshot{State: StateCheckingAuth}) }

// Subscribe registers fn and returns a function that removes it.  fn is not
// called for the current state.
func (t *Tracker) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.order = append(t.order, id)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
		for i, v := range t.order {
			if v == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
}

func (t *Tracker) set(next Snapshot) {
	t.mu.Lock()
	if t.snap == next {
		t.mu.Unlock()
		return
	}
	t.snap = next
	fns := make([]func(Snapshot), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.listeners[id])
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
