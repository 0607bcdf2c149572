package portal

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// State is the lifecycle of a view-local resource.
type State int

const (
	// StateIdle means the resource's dependency (usually the selected
	// child) is unavailable and nothing is loaded.
	StateIdle State = iota
	StateLoading
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// MsgSessionExpired is shown when a fetch comes back unauthorized.
const MsgSessionExpired = "session expired, please log in again"

// MsgLoadFailed is the default text for a server-reported failure without a message.
const MsgLoadFailed = "unable to load data"

type (
	// FetchFunc performs one remote call with all dependencies bound.
	FetchFunc func(ctx context.Context) (Envelope, error)

	// ExtractFunc pulls the view's collection out of a successful envelope.
	ExtractFunc[T any] func(Envelope) (T, error)

	// Snapshot is an immutable view of a resource for rendering.
	Snapshot[T any] struct {
		State State
		Data  T
		Err   string
	}

	// Resource manages the lifecycle of one remote fetch bound to a view:
	// Idle -> Loading -> Ready | Errored, re-entering Loading on every
	// dependency change. Each load is tagged with a sequence number;
	// completions that are no longer the latest are discarded, so rapid
	// dependency changes can never apply a stale response over a newer one.
	Resource[T any] struct {
		fetch    FetchFunc
		extract  ExtractFunc[T]
		empty    T
		fallback string
		onUnauth func()

		mu        sync.Mutex
		seq       uint64
		state     State
		data      T
		errMsg    string
		observers []func(Snapshot[T])
	}

	ResourceOption[T any] func(*Resource[T])
)

// WithFallback sets the per-view text used when the server reports a failure
// without a message (e.g. "unable to load grades").
func WithFallback[T any](msg string) ResourceOption[T] {
	return func(r *Resource[T]) { r.fallback = msg }
}

// WithUnauthorizedHook registers a callback invoked when a load fails with
// ErrUnauthorized, letting the session controller discard persisted state.
func WithUnauthorizedHook[T any](fn func()) ResourceOption[T] {
	return func(r *Resource[T]) { r.onUnauth = fn }
}

func NewResource[T any](fetch FetchFunc, extract ExtractFunc[T], empty T, opts ...ResourceOption[T]) *Resource[T] {
	r := &Resource[T]{
		fetch:    fetch,
		extract:  extract,
		empty:    empty,
		fallback: MsgLoadFailed,
		state:    StateIdle,
		data:     empty,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extract returns an ExtractFunc decoding the envelope's data into P.
// Absent payloads and absent sub-collection keys decode to P's zero value,
// never an error.
func Extract[P any]() ExtractFunc[P] {
	return func(e Envelope) (P, error) {
		var p P
		if err := e.Decode(&p); err != nil {
			return p, errors.Wrap(err, "decoding payload")
		}
		return p, nil
	}
}

// Subscribe registers an observer notified on every state transition.
func (r *Resource[T]) Subscribe(fn func(Snapshot[T])) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Snapshot returns the current state for rendering.
func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot[T]{State: r.state, Data: r.data, Err: r.errMsg}
}

// Invalidate returns the resource to Idle with its empty default, to be
// called when the required dependency becomes unavailable.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.seq++ // orphan any in-flight load
	r.state = StateIdle
	r.data = r.empty
	r.errMsg = ""
	snap, obs := r.snapshotLocked()
	r.mu.Unlock()
	publish(snap, obs)
}

// Load runs one fetch synchronously and returns the resulting snapshot.
func (r *Resource[T]) Load(ctx context.Context) Snapshot[T] {
	seq := r.begin()
	env, err := r.fetch(ctx)
	r.apply(seq, env, err)
	return r.Snapshot()
}

// Reload re-runs the fetch without blocking the caller; used when a
// dependency changes while a view stays mounted. A reload issued while a
// prior fetch is still in flight supersedes it.
func (r *Resource[T]) Reload(ctx context.Context) {
	seq := r.begin()
	go func() {
		env, err := r.fetch(ctx)
		r.apply(seq, env, err)
	}()
}

// begin transitions to Loading, clearing previously displayed data first so
// no stale records survive a dependency change.
func (r *Resource[T]) begin() uint64 {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.state = StateLoading
	r.data = r.empty
	r.errMsg = ""
	snap, obs := r.snapshotLocked()
	r.mu.Unlock()
	publish(snap, obs)
	return seq
}

func (r *Resource[T]) apply(seq uint64, env Envelope, err error) {
	r.mu.Lock()
	if seq != r.seq {
		// superseded by a newer load; drop this response
		r.mu.Unlock()
		return
	}

	var unauthorized bool
	switch {
	case err != nil:
		r.state = StateErrored
		r.data = r.empty
		if errors.Is(err, ErrUnauthorized) {
			r.errMsg = MsgSessionExpired
			unauthorized = true
		} else {
			r.errMsg = ClassifyTransportError(err)
		}
	case !env.OK():
		r.state = StateErrored
		r.data = r.empty
		if env.Message != "" {
			r.errMsg = env.Message
		} else {
			r.errMsg = r.fallback
		}
	default:
		data, xerr := r.extract(env)
		if xerr != nil {
			r.state = StateErrored
			r.data = r.empty
			r.errMsg = r.fallback
		} else {
			r.state = StateReady
			r.data = data
			r.errMsg = ""
		}
	}
	snap, obs := r.snapshotLocked()
	onUnauth := r.onUnauth
	r.mu.Unlock()

	publish(snap, obs)
	if unauthorized && onUnauth != nil {
		onUnauth()
	}
}

func (r *Resource[T]) snapshotLocked() (Snapshot[T], []func(Snapshot[T])) {
	obs := make([]func(Snapshot[T]), len(r.observers))
	copy(obs, r.observers)
	return Snapshot[T]{State: r.state, Data: r.data, Err: r.errMsg}, obs
}

func publish[T any](snap Snapshot[T], obs []func(Snapshot[T])) {
	for _, fn := range obs {
		fn(snap)
	}
}
