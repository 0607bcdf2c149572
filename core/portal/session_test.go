package portal

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"syscall"
	"testing"
)

// fakeClient scripts the endpoints the session touches; everything else
// succeeds with an empty envelope.
type fakeClient struct {
	loginFn    func(Credentials) (Envelope, error)
	logoutFn   func() (Envelope, error)
	childrenFn func() (Envelope, error)

	logoutCalls int
}

func okEnv() Envelope { return Envelope{Status: StatusSuccess} }

func (c *fakeClient) Login(_ context.Context, creds Credentials) (Envelope, error) {
	if c.loginFn != nil {
		return c.loginFn(creds)
	}
	return okEnv(), nil
}

func (c *fakeClient) Logout(context.Context) (Envelope, error) {
	c.logoutCalls++
	if c.logoutFn != nil {
		return c.logoutFn()
	}
	return okEnv(), nil
}

func (c *fakeClient) Children(context.Context) (Envelope, error) {
	if c.childrenFn != nil {
		return c.childrenFn()
	}
	return okEnv(), nil
}

func (c *fakeClient) ChangePassword(context.Context, PasswordChange) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) StudentDashboard(context.Context, int) (Envelope, error) { return okEnv(), nil }
func (c *fakeClient) StudentInfo(context.Context, int) (Envelope, error)      { return okEnv(), nil }
func (c *fakeClient) StudentGrades(context.Context, int, GradeFilter) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) StudentAttendance(context.Context, int, AttendanceFilter) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) StudentTimetable(context.Context, int, TimetableFilter) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) StudentFees(context.Context, int) (Envelope, error) { return okEnv(), nil }
func (c *fakeClient) StudentMessages(context.Context, int, MessageFilter) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) SendMessage(context.Context, int, NewMessage) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) StudentTeachers(context.Context, int) (Envelope, error) { return okEnv(), nil }
func (c *fakeClient) StudentReports(context.Context, int, ReportFilter) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) DownloadReport(context.Context, int, string) (Envelope, error) {
	return okEnv(), nil
}
func (c *fakeClient) AcademicPeriods(context.Context, int) (Envelope, error) { return okEnv(), nil }

var _ Client = (*fakeClient)(nil)

type fakeStore struct {
	token   string
	profile *Profile
}

func (s *fakeStore) Token() string { return s.token }
func (s *fakeStore) SetToken(token string) error {
	s.token = token
	return nil
}
func (s *fakeStore) Profile() (Profile, bool) {
	if s.profile == nil {
		return Profile{}, false
	}
	return *s.profile, true
}
func (s *fakeStore) SetProfile(p Profile) error {
	s.profile = &p
	return nil
}
func (s *fakeStore) Clear() error {
	s.token = ""
	s.profile = nil
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func childrenEnv(children string) Envelope {
	return Envelope{Status: StatusSuccess, Data: json.RawMessage(`{"children":` + children + `}`)}
}

func TestSessionRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted stays unauthenticated", func(t *testing.T) {
		var calls int
		client := &fakeClient{childrenFn: func() (Envelope, error) {
			calls++
			return okEnv(), nil
		}}
		sess := NewSession(client, &fakeStore{}, nopLogger{})

		if err := sess.Restore(ctx); err != nil {
			t.Fatalf("Restore() failed: %v", err)
		}
		if sess.State() != Unauthenticated {
			t.Errorf("State() = %v; want unauthenticated", sess.State())
		}
		if calls != 0 {
			t.Errorf("children fetched %d times; want 0", calls)
		}
	})

	t.Run("valid entries resume with fresh children", func(t *testing.T) {
		client := &fakeClient{childrenFn: func() (Envelope, error) {
			return childrenEnv(`[{"id":42,"name":"Awa"}]`), nil
		}}
		store := &fakeStore{token: "tok", profile: &Profile{ID: 1, Name: "Mme Diop", Email: "diop@example.com"}}
		sess := NewSession(client, store, nopLogger{})

		if err := sess.Restore(ctx); err != nil {
			t.Fatalf("Restore() failed: %v", err)
		}
		if sess.State() != Authenticated {
			t.Fatalf("State() = %v; want authenticated", sess.State())
		}
		prof := sess.Profile()
		if prof.Name != "Mme Diop" || len(prof.Children) != 1 || prof.Children[0].ID != 42 {
			t.Errorf("Profile() = %+v; want cached profile with fresh children", prof)
		}
	})

	t.Run("rejected token clears both entries", func(t *testing.T) {
		client := &fakeClient{childrenFn: func() (Envelope, error) {
			return Envelope{Status: StatusError, Message: "Authentication required"}, nil
		}}
		store := &fakeStore{token: "stale", profile: &Profile{ID: 1}}
		sess := NewSession(client, store, nopLogger{})

		if err := sess.Restore(ctx); err != nil {
			t.Fatalf("Restore() failed: %v", err)
		}
		if sess.State() != Unauthenticated {
			t.Errorf("State() = %v; want unauthenticated", sess.State())
		}
		if store.token != "" || store.profile != nil {
			t.Errorf("store = %+v; want cleared", store)
		}
	})

	t.Run("transport failure clears and reports", func(t *testing.T) {
		client := &fakeClient{childrenFn: func() (Envelope, error) {
			return Envelope{}, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
		}}
		store := &fakeStore{token: "tok", profile: &Profile{ID: 1}}
		sess := NewSession(client, store, nopLogger{})

		if err := sess.Restore(ctx); err == nil {
			t.Fatal("Restore() succeeded; want error")
		}
		if sess.State() != Unauthenticated {
			t.Errorf("State() = %v; want unauthenticated", sess.State())
		}
		if store.token != "" {
			t.Errorf("token = %q; want cleared", store.token)
		}
	})
}

func TestSessionEstablish(t *testing.T) {
	ctx := context.Background()
	creds := Credentials{Email: "diop@example.com", Password: "s3cret"}

	t.Run("success persists token and profile", func(t *testing.T) {
		client := &fakeClient{
			loginFn: func(Credentials) (Envelope, error) {
				return Envelope{
					Status:    StatusSuccess,
					SessionID: "tok",
					Parent:    &Profile{ID: 1, Name: "Mme Diop", Email: "diop@example.com"},
				}, nil
			},
			childrenFn: func() (Envelope, error) {
				return childrenEnv(`[{"id":42,"name":"Awa"},{"id":43,"name":"Moussa"}]`), nil
			},
		}
		store := &fakeStore{}
		sess := NewSession(client, store, nopLogger{})

		if err := sess.Establish(ctx, creds); err != nil {
			t.Fatalf("Establish() failed: %v", err)
		}
		if sess.State() != Authenticated {
			t.Fatalf("State() = %v; want authenticated", sess.State())
		}
		if store.token != "tok" {
			t.Errorf("token = %q; want tok", store.token)
		}
		if len(sess.Profile().Children) != 2 {
			t.Errorf("Profile() = %+v; want two children", sess.Profile())
		}
	})

	t.Run("rejected credentials persist nothing", func(t *testing.T) {
		client := &fakeClient{loginFn: func(Credentials) (Envelope, error) {
			return Envelope{Status: StatusError, Message: "Invalid credentials"}, nil
		}}
		store := &fakeStore{}
		sess := NewSession(client, store, nopLogger{})

		err := sess.Establish(ctx, creds)
		if err == nil || err.Error() != "Invalid credentials" {
			t.Fatalf("Establish() = %v; want the server message", err)
		}
		if store.token != "" || store.profile != nil {
			t.Errorf("store = %+v; want untouched", store)
		}
		if sess.State() != Unauthenticated {
			t.Errorf("State() = %v; want unauthenticated", sess.State())
		}
	})

	t.Run("invalid input never reaches the server", func(t *testing.T) {
		var calls int
		client := &fakeClient{loginFn: func(Credentials) (Envelope, error) {
			calls++
			return okEnv(), nil
		}}
		sess := NewSession(client, &fakeStore{}, nopLogger{})

		if err := sess.Establish(ctx, Credentials{Email: "not-an-email", Password: "x"}); err == nil {
			t.Fatal("Establish() succeeded; want validation error")
		}
		if calls != 0 {
			t.Errorf("login called %d times; want 0", calls)
		}
	})

	t.Run("transport failure maps to service unavailable", func(t *testing.T) {
		client := &fakeClient{loginFn: func(Credentials) (Envelope, error) {
			return Envelope{}, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
		}}
		sess := NewSession(client, &fakeStore{}, nopLogger{})

		err := sess.Establish(ctx, creds)
		if err == nil || err.Error() != MsgServiceUnavailable {
			t.Fatalf("Establish() = %v; want %q", err, MsgServiceUnavailable)
		}
	})

	t.Run("children failure after login drops the token", func(t *testing.T) {
		client := &fakeClient{
			loginFn: func(Credentials) (Envelope, error) {
				return Envelope{Status: StatusSuccess, SessionID: "tok", Parent: &Profile{ID: 1}}, nil
			},
			childrenFn: func() (Envelope, error) {
				return Envelope{Status: StatusError, Message: "Access denied"}, nil
			},
		}
		store := &fakeStore{}
		sess := NewSession(client, store, nopLogger{})

		err := sess.Establish(ctx, creds)
		if err == nil || !strings.Contains(err.Error(), "Access denied") {
			t.Fatalf("Establish() = %v; want the children failure", err)
		}
		if store.token != "" {
			t.Errorf("token = %q; want cleared", store.token)
		}
		if sess.State() != Unauthenticated {
			t.Errorf("State() = %v; want unauthenticated", sess.State())
		}
	})
}

func TestSessionTeardown(t *testing.T) {
	client := &fakeClient{}
	store := &fakeStore{token: "tok", profile: &Profile{ID: 1}}
	sess := NewSession(client, store, nopLogger{})

	sess.Teardown(context.Background())

	if client.logoutCalls != 1 {
		t.Errorf("logout called %d times; want 1", client.logoutCalls)
	}
	if store.token != "" || store.profile != nil {
		t.Errorf("store = %+v; want cleared", store)
	}
	if sess.State() != Unauthenticated {
		t.Errorf("State() = %v; want unauthenticated", sess.State())
	}
}

func TestSessionTeardownServerFailure(t *testing.T) {
	client := &fakeClient{logoutFn: func() (Envelope, error) {
		return Envelope{}, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	}}
	store := &fakeStore{token: "tok", profile: &Profile{ID: 1}}
	sess := NewSession(client, store, nopLogger{})

	// the server call is best effort; local state still goes
	sess.Teardown(context.Background())

	if store.token != "" {
		t.Errorf("token = %q; want cleared", store.token)
	}
	if sess.State() != Unauthenticated {
		t.Errorf("State() = %v; want unauthenticated", sess.State())
	}
}

func TestSessionHandleUnauthorized(t *testing.T) {
	store := &fakeStore{token: "tok", profile: &Profile{ID: 1}}
	sess := NewSession(&fakeClient{}, store, nopLogger{})

	sess.HandleUnauthorized()

	if store.token != "" || store.profile != nil {
		t.Errorf("store = %+v; want cleared", store)
	}
	if sess.State() != Unauthenticated {
		t.Errorf("State() = %v; want unauthenticated", sess.State())
	}
}

func TestSessionSubscribe(t *testing.T) {
	client := &fakeClient{childrenFn: func() (Envelope, error) {
		return childrenEnv(`[{"id":42,"name":"Awa"}]`), nil
	}}
	store := &fakeStore{token: "tok", profile: &Profile{ID: 1, Name: "Mme Diop"}}
	sess := NewSession(client, store, nopLogger{})

	var states []SessionState
	sess.Subscribe(func(state SessionState, _ Profile) { states = append(states, state) })

	if err := sess.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	want := []SessionState{Restoring, Authenticated}
	if len(states) != len(want) || states[0] != want[0] || states[1] != want[1] {
		t.Errorf("observed %v; want %v", states, want)
	}
}
