// Package guard runs the authentication and role checks that stand in
// front of protected routes.
package guard

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"crop-catch/internal/authz"
	"crop-catch/internal/session"

	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateCheckingAuth    State = "checking-auth"
	StateCheckingRole    State = "checking-role"
	StateUnauthenticated State = "unauthenticated"
	StateUnauthorized    State = "unauthorized"
	StateAuthorized      State = "authorized"
	StateTimedOut        State = "timed-out"
)

var ErrTimeout = errors.New("role check timed out")

type Scope int

const (
	// ScopeAuth only needs a signed-in identity.
	ScopeAuth Scope = iota
	// ScopeAdmin additionally needs the admin role.
	ScopeAdmin
)

// Decision is the outcome of one evaluation. Trail lists every state
// visited, ending with State.
type Decision struct {
	State State
	Trail []State
	Err   error
	// Discarded is set when the caller went away before the role check
	// finished.
	Discarded bool
}

func (d Decision) Allowed() bool {
	return d.State == StateAuthorized && !d.Discarded
}

type Options struct {
	Scope   Scope
	Timeout time.Duration
	MemoTTL time.Duration
	Now     func() time.Time
}

type memoEntry struct {
	state   State
	expires time.Time
}

type Guard struct {
	verifier authz.AdminVerifier
	opts     Options
	group    singleflight.Group

	mu   sync.Mutex
	memo map[string]memoEntry
	// gen is bumped by Forget so in-flight checks cannot refill a dropped
	// entry.
	gen map[string]uint64
}

func New(verifier authz.AdminVerifier, opts Options) *Guard {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Guard{
		verifier: verifier,
		opts:     opts,
		memo:     make(map[string]memoEntry),
		gen:      make(map[string]uint64),
	}
}

func (g *Guard) Evaluate(ctx context.Context, id *session.Identity) Decision {
	d := Decision{Trail: []State{StateCheckingAuth}}

	if id == nil || id.ID == "" {
		return d.land(StateUnauthenticated)
	}
	if g.opts.Scope == ScopeAuth {
		return d.land(StateAuthorized)
	}

	d.Trail = append(d.Trail, StateCheckingRole)
	if st, ok := g.lookup(id.ID); ok {
		return d.land(st)
	}

	// the check survives the caller so its result can still be memoized
	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(id.ID, func() (any, error) {
		return g.verify(detached, id.ID)
	})

	timer := time.NewTimer(g.opts.Timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			log.Printf("[guard] role check for %s failed: %v", id.ID, res.Err)
			d.Err = res.Err
			return d.land(StateUnauthorized)
		}
		return d.land(res.Val.(State))
	case <-ctx.Done():
		d.Discarded = true
		d.Err = ctx.Err()
		d.State = StateCheckingRole
		return d
	case <-timer.C:
		log.Printf("[guard] role check for %s timed out after %s", id.ID, g.opts.Timeout)
		d.Err = ErrTimeout
		return d.land(StateTimedOut)
	}
}

// Forget drops the memoized decision for userID.
func (g *Guard) Forget(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.memo, userID)
	g.gen[userID]++
}

func (g *Guard) verify(ctx context.Context, userID string) (State, error) {
	// a flight that just finished may have filled the memo
	if st, ok := g.lookup(userID); ok {
		return st, nil
	}

	g.mu.Lock()
	gen := g.gen[userID]
	g.mu.Unlock()

	var st State
	err := g.verifier.VerifyAdmin(ctx, userID)
	switch {
	case err == nil:
		st = StateAuthorized
	case errors.Is(err, authz.ErrUnauthorized):
		st = StateUnauthorized
	case errors.Is(err, authz.ErrNotAuthenticated):
		return StateUnauthenticated, nil
	default:
		return "", err
	}

	g.mu.Lock()
	if g.opts.MemoTTL > 0 && g.gen[userID] == gen {
		g.memo[userID] = memoEntry{state: st, expires: g.opts.Now().Add(g.opts.MemoTTL)}
	}
	g.mu.Unlock()
	return st, nil
}

func (g *Guard) lookup(userID string) (State, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.memo[userID]
	if !ok {
		return "", false
	}
	if !g.opts.Now().Before(e.expires) {
		delete(g.memo, userID)
		return "", false
	}
	return e.state, true
}

func (d Decision) land(s State) Decision {
	d.State = s
	d.Trail = append(d.Trail, s)
	return d
}
