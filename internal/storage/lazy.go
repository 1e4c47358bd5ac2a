package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

// DefaultRetryInterval bounds how often a Lazy store re-attempts to connect.
const DefaultRetryInterval = 5 * time.Second

// connectTimeout caps a single background connection attempt.
const connectTimeout = 15 * time.Second

// OpenFunc connects to a backend.
type OpenFunc func(ctx context.Context) (repository.Store, error)

// Lazy is the store used when the process starts without a reachable
// backend. A call made after the retry interval has passed starts one
// connection attempt; concurrent callers wait on that same attempt for as
// long as their own context allows. Until it succeeds calls fail with
// apperror.ErrUnavailable.
type Lazy struct {
	open     OpenFunc
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	store    repository.Store
	lastTry  time.Time
	lastErr  error
	attempts int
	inflight chan struct{} // closed when the running attempt finishes
	closed   bool
}

var _ repository.Store = (*Lazy)(nil)

// NewLazy returns a store that connects through open on demand. initialErr is
// the failure seen at startup and is reported until the first retry.
func NewLazy(open OpenFunc, initialErr error, logger *slog.Logger) *Lazy {
	return &Lazy{
		open:     open,
		logger:   logger,
		interval: DefaultRetryInterval,
		now:      time.Now,
		lastTry:  time.Now(),
		lastErr:  initialErr,
	}
}

func (l *Lazy) get(ctx context.Context) (repository.Store, error) {
	l.mu.Lock()
	if l.store != nil {
		store := l.store
		l.mu.Unlock()
		return store, nil
	}

	done := l.inflight
	if done == nil && !l.closed && l.now().Sub(l.lastTry) >= l.interval {
		l.lastTry = l.now()
		l.attempts++
		done = make(chan struct{})
		l.inflight = done
		go l.connect(l.attempts, done)
	}
	lastErr := l.lastErr
	l.mu.Unlock()

	if done == nil {
		return nil, apperror.Unavailable("Database unavailable", lastErr)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, apperror.Unavailable("Database unavailable", ctx.Err())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	return nil, apperror.Unavailable("Database unavailable", l.lastErr)
}

// connect runs one attempt detached from any request context, so a caller
// giving up early does not cut the attempt short.
func (l *Lazy) connect(attempt int, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	store, err := l.open(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight = nil

	if err != nil {
		l.logger.Warn("store still unavailable", "attempts", attempt, "error", err)
		l.lastErr = err
		return
	}
	if l.closed {
		store.Close()
		return
	}
	l.logger.Info("store connected", "attempts", attempt)
	l.store = store
	l.lastErr = nil
}

func (l *Lazy) CreateUser(ctx context.Context, user *model.User) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.CreateUser(ctx, user)
}

func (l *Lazy) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetUserByEmail(ctx, email)
}

func (l *Lazy) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (l *Lazy) CreateNote(ctx context.Context, note *model.Note) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.CreateNote(ctx, note)
}

func (l *Lazy) GetNote(ctx context.Context, id string) (*model.Note, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetNote(ctx, id)
}

func (l *Lazy) ListNotesByOwner(ctx context.Context, userID string) ([]model.Note, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListNotesByOwner(ctx, userID)
}

func (l *Lazy) DeleteNote(ctx context.Context, id string) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.DeleteNote(ctx, id)
}

func (l *Lazy) Ping(ctx context.Context) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

// Close closes the underlying store if a connection was ever made. A
// connection that completes after Close is closed straight away.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.store == nil {
		return nil
	}
	store := l.store
	l.store = nil
	return store.Close()
}
