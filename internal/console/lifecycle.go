// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

// Package console implements the operator-facing session and mutation flow:
// signing in and out, restoring a saved session, and coordinating product
// mutations so only one write is ever in flight.
package console

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/freshmart/adminctl/internal/gateway"
	"github.com/freshmart/adminctl/internal/notify"
	"github.com/freshmart/adminctl/internal/token"
)

// State is the session lifecycle state.
type State int

const (
	// Unauthenticated means no usable session exists.
	Unauthenticated State = iota

	// Authenticating means a sign-in request is in flight.
	Authenticating

	// OptimisticallyAuthenticated means a saved, locally unexpired
	// session was restored but the server has not confirmed it yet.
	// Reads may proceed; a failed verification drops back to
	// Unauthenticated.
	OptimisticallyAuthenticated

	// Authenticated means the server has confirmed the session.
	Authenticated
)

// String implements fmt.Stringer for log and status output.
func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case OptimisticallyAuthenticated:
		return "optimistic"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Login throttle: a small burst, then one attempt per interval. Slows down
// credential guessing without bothering a human operator.
const (
	loginBurst     = 3
	loginPerMinute = 12
)

// ErrLoginThrottled is returned when sign-in attempts come too fast.
var ErrLoginThrottled = errors.New("too many login attempts, try again shortly")

// ErrBusy is returned when an operation needs the mutation slot while
// another mutation is still in flight.
var ErrBusy = errors.New("another operation is in progress")

// Lifecycle drives the session state machine. All methods are safe for
// concurrent use.
type Lifecycle struct {
	gw      *gateway.Gateway
	tokens  *token.Store
	notif   notify.Notifier
	logger  *slog.Logger
	limiter *rate.Limiter

	mu      sync.Mutex
	state   State
	session gateway.Session
	epoch   uint64

	verifying atomic.Bool
}

// NewLifecycle creates a lifecycle in the Unauthenticated state. The
// gateway's credential provider should be wired to (*Lifecycle).Token.
func NewLifecycle(gw *gateway.Gateway, tokens *token.Store, notif notify.Notifier, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		gw:      gw,
		tokens:  tokens,
		notif:   notif,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(float64(loginPerMinute)/60.0), loginBurst),
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Epoch counts session changes. Background work captures the epoch before
// starting and discards its result when the epoch moved, so data fetched
// under an old session never lands under a new one.
func (l *Lifecycle) Epoch() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

// Token is the gateway's credential provider: it hands out the current
// session token whenever one exists, confirmed or optimistic.
func (l *Lifecycle) Token() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Authenticated || l.state == OptimisticallyAuthenticated {
		return l.session.Token, true
	}
	return "", false
}

// Session returns the current session for status output.
func (l *Lifecycle) Session() (gateway.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Authenticated || l.state == OptimisticallyAuthenticated {
		return l.session, true
	}
	return gateway.Session{}, false
}

// Login signs in with the given credentials. On success the session is
// persisted and the state becomes Authenticated; on failure the state
// drops back to Unauthenticated and the operator sees the server's
// message.
func (l *Lifecycle) Login(ctx context.Context, username, password string) error {
	if !l.limiter.Allow() {
		l.logger.Warn("login attempt throttled", "username", username)
		l.notif.Error("Login failed", ErrLoginThrottled.Error())
		return ErrLoginThrottled
	}

	l.mu.Lock()
	if l.state == Authenticating {
		l.mu.Unlock()
		return ErrBusy
	}
	l.state = Authenticating
	l.mu.Unlock()

	sess, err := l.gw.Login(ctx, username, password)
	if err != nil {
		l.mu.Lock()
		l.state = Unauthenticated
		l.session = gateway.Session{}
		l.mu.Unlock()

		l.logger.Warn("login failed", "username", username, "error", err)
		l.notif.Error("Login failed", gateway.UserMessage(err))
		return err
	}

	if err := l.tokens.Save(sess); err != nil {
		// A session that only lives in memory still works for this run.
		l.logger.Warn("failed to persist session", "error", err)
	}

	l.mu.Lock()
	l.state = Authenticated
	l.session = sess
	l.epoch++
	l.mu.Unlock()

	l.logger.Info("login successful", "username", username, "expires_at", sess.ExpiresAt)
	l.notif.Success("login successful", "")
	return nil
}

// Logout discards the session locally. The server keeps no session state
// beyond the token itself, so there is nothing to call remotely.
func (l *Lifecycle) Logout(ctx context.Context) error {
	_ = ctx

	l.mu.Lock()
	hadSession := l.state != Unauthenticated
	l.state = Unauthenticated
	l.session = gateway.Session{}
	l.epoch++
	l.mu.Unlock()

	if err := l.tokens.Clear(); err != nil {
		l.logger.Warn("failed to clear persisted session", "error", err)
	}

	if hadSession {
		l.logger.Info("logged out")
		l.notif.Success("logged out", "")
	}
	return nil
}

// Restore loads the persisted session, trusts it optimistically, then asks
// the server to confirm. A missing or locally expired session leaves the
// state Unauthenticated without any fuss; so does a server rejection, since
// the operator simply has to sign in again. Network trouble keeps the
// optimistic session, reported through the returned error.
func (l *Lifecycle) Restore(ctx context.Context) error {
	sess, ok, err := l.tokens.Load()
	if err != nil {
		l.logger.Warn("failed to load persisted session", "error", err)
	}
	if !ok {
		l.mu.Lock()
		l.state = Unauthenticated
		l.session = gateway.Session{}
		l.mu.Unlock()
		return nil
	}

	l.mu.Lock()
	l.state = OptimisticallyAuthenticated
	l.session = sess
	l.epoch++
	l.mu.Unlock()
	l.logger.Debug("session restored optimistically", "expires_at", sess.ExpiresAt)

	return l.Verify(ctx)
}

// Verify asks the server whether the current session is still good and
// settles the optimistic state one way or the other. Concurrent calls
// collapse into one; the extras return immediately.
func (l *Lifecycle) Verify(ctx context.Context) error {
	l.mu.Lock()
	if l.state != OptimisticallyAuthenticated && l.state != Authenticated {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	if !l.verifying.CompareAndSwap(false, true) {
		return nil
	}
	defer l.verifying.Store(false)

	err := l.gw.Verify(ctx)
	switch {
	case err == nil:
		l.mu.Lock()
		if l.state == OptimisticallyAuthenticated {
			l.state = Authenticated
		}
		l.mu.Unlock()
		return nil

	case gateway.IsUnauthorized(err):
		// The saved token is dead. Drop it quietly; the next command
		// will ask the operator to sign in.
		l.logger.Info("saved session rejected by server")
		l.Invalidate()
		return nil

	default:
		l.logger.Warn("session verification failed", "error", err)
		l.notif.Error("Session check failed", gateway.UserMessage(err))
		return err
	}
}

// Check is the operator-invoked session probe. Unlike Verify it only
// reports: a good session gets a confirmation, a bad one the server's
// message, and the lifecycle state is left exactly as it was.
func (l *Lifecycle) Check(ctx context.Context) error {
	if err := l.gw.Verify(ctx); err != nil {
		l.logger.Warn("session check failed", "error", err)
		l.notif.Error("Session check failed", gateway.UserMessage(err))
		return err
	}
	l.notif.Info("currently logged in", "")
	return nil
}

// Invalidate discards the session without notifying the operator. Called
// when the server rejects our token mid-flight.
func (l *Lifecycle) Invalidate() {
	l.mu.Lock()
	l.state = Unauthenticated
	l.session = gateway.Session{}
	l.epoch++
	l.mu.Unlock()

	if err := l.tokens.Clear(); err != nil {
		l.logger.Warn("failed to clear persisted session", "error", err)
	}
}
