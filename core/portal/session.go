package portal

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/edusync/portal/core"
)

// SessionState is the authentication lifecycle of the portal.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Restoring
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Store persists the only two durable client-side entries: the opaque
// session token and the cached parent profile. storage/local implements it.
type Store interface {
	Token() string
	SetToken(token string) error
	Profile() (Profile, bool)
	SetProfile(p Profile) error
	// Clear removes both entries.
	Clear() error
}

var errLoginFailed = errors.New("login failed")

// Session restores, establishes and tears down the authenticated parent's
// session. It is the sole writer of the persisted entries; every other
// component only reads them.
type Session struct {
	client Client
	store  Store
	log    core.Logger

	mu        sync.Mutex
	state     SessionState
	profile   Profile
	observers []func(SessionState, Profile)
}

func NewSession(client Client, store Store, log core.Logger) *Session {
	return &Session{
		client: client,
		store:  store,
		log:    log,
		state:  Unauthenticated,
	}
}

// Subscribe registers an observer notified on every session transition.
func (s *Session) Subscribe(fn func(SessionState, Profile)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Profile returns the merged parent profile; meaningful only when Authenticated.
func (s *Session) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Restore re-establishes a persisted session. With both entries present it
// re-fetches the children list to confirm the token is still honored and
// merges the result into the cached profile; any failure discards both
// entries and leaves the session unauthenticated.
func (s *Session) Restore(ctx context.Context) error {
	token := s.store.Token()
	prof, ok := s.store.Profile()
	if token == "" || !ok {
		s.transition(Unauthenticated, Profile{})
		return nil
	}

	s.transition(Restoring, Profile{})

	env, err := s.client.Children(ctx)
	if err != nil || !env.OK() {
		if cerr := s.store.Clear(); cerr != nil {
			s.log.Warn("clearing persisted session", cerr)
		}
		s.transition(Unauthenticated, Profile{})
		if err != nil {
			return errors.Wrap(err, "session restore")
		}
		return nil
	}

	var payload ChildrenPayload
	if err := env.Decode(&payload); err != nil {
		s.log.Warn("decoding children during restore", err)
	}
	prof.Children = payload.Children
	s.transition(Authenticated, prof)
	return nil
}

// Establish submits credentials and, on success, persists the returned token
// and profile before loading the children list. Nothing is persisted when
// the server rejects the credentials; the server message is surfaced as the
// returned error.
func (s *Session) Establish(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	env, err := s.client.Login(ctx, creds)
	if err != nil {
		return errors.New(ClassifyTransportError(err))
	}
	if !env.OK() {
		if env.Message != "" {
			return errors.New(env.Message)
		}
		return errLoginFailed
	}

	prof := Profile{Email: creds.Email}
	if env.Parent != nil {
		prof = *env.Parent
	}
	if err := s.store.SetToken(env.SessionID); err != nil {
		return errors.Wrap(err, "persisting session token")
	}
	if err := s.store.SetProfile(prof); err != nil {
		return errors.Wrap(err, "persisting profile")
	}

	childrenEnv, err := s.client.Children(ctx)
	if err != nil || !childrenEnv.OK() {
		// a token that cannot load children is useless; drop it
		if cerr := s.store.Clear(); cerr != nil {
			s.log.Warn("clearing persisted session", cerr)
		}
		s.transition(Unauthenticated, Profile{})
		if err != nil {
			return errors.New(ClassifyTransportError(err))
		}
		return errors.New(messageOr(childrenEnv, "unable to load children"))
	}

	var payload ChildrenPayload
	if err := childrenEnv.Decode(&payload); err != nil {
		s.log.Warn("decoding children during login", err)
	}
	prof.Children = payload.Children
	s.transition(Authenticated, prof)
	return nil
}

// Teardown logs out. The server call is best effort; local state is always
// cleared.
func (s *Session) Teardown(ctx context.Context) {
	if _, err := s.client.Logout(ctx); err != nil {
		s.log.Debug("server logout", err)
	}
	if err := s.store.Clear(); err != nil {
		s.log.Warn("clearing persisted session", err)
	}
	s.transition(Unauthenticated, Profile{})
}

// HandleUnauthorized discards persisted state after any 401, forcing the
// portal back to the login screen.
func (s *Session) HandleUnauthorized() {
	if err := s.store.Clear(); err != nil {
		s.log.Warn("clearing persisted session", err)
	}
	s.transition(Unauthenticated, Profile{})
}

func (s *Session) transition(state SessionState, prof Profile) {
	s.mu.Lock()
	s.state = state
	s.profile = prof
	obs := make([]func(SessionState, Profile), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(state, prof)
	}
}

func messageOr(env Envelope, fallback string) string {
	if env.Message != "" {
		return env.Message
	}
	return fallback
}
