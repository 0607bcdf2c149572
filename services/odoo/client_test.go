package odoosvc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"

	"github.com/edusync/portal/core/portal"
	testutil "github.com/edusync/portal/tests"
)

func newTestClient(t *testing.T, backend *testutil.Backend, token string) *Client {
	t.Helper()
	store := testutil.NewMemStore()
	if token != "" {
		if err := store.SetToken(token); err != nil {
			t.Fatalf("SetToken() failed: %v", err)
		}
	}
	client, err := NewClient(backend.Config(), store, testutil.NopLogger{})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	conf := testutil.NewBackend(t).Config()
	conf.BaseURL = "localhost:8069" // no scheme
	if _, err := NewClient(conf, testutil.NewMemStore(), testutil.NopLogger{}); err == nil {
		t.Error("NewClient() succeeded; want error")
	}
}

func TestClientGradesQuery(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Respond("GET", "/api/parent/student/:id/grades", portal.Envelope{Status: portal.StatusSuccess})
	client := newTestClient(t, backend, "tok")

	filter := portal.GradeFilter{Period: "trimestre1"}
	env, err := client.StudentGrades(context.Background(), 42, filter)
	if err != nil {
		t.Fatalf("StudentGrades() failed: %v", err)
	}
	if !env.OK() {
		t.Fatalf("env = %+v; want success", env)
	}

	req := backend.LastRequest(t)
	if req.Path != "/api/parent/student/42/grades" {
		t.Errorf("Path = %q", req.Path)
	}
	if got := req.Query.Get("period"); got != "trimestre1" {
		t.Errorf("period = %q; want trimestre1", got)
	}
	if _, ok := req.Query["subject"]; ok {
		t.Error("zero-valued subject filter was sent")
	}
	if req.Token != "tok" {
		t.Errorf("session cookie = %q; want tok", req.Token)
	}
	if req.Header.Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header not set")
	}
}

func TestClientOmitsZeroFilters(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Respond("GET", "/api/parent/student/:id/attendance", portal.Envelope{Status: portal.StatusSuccess})
	client := newTestClient(t, backend, "tok")

	if _, err := client.StudentAttendance(context.Background(), 42, portal.AttendanceFilter{}); err != nil {
		t.Fatalf("StudentAttendance() failed: %v", err)
	}
	if req := backend.LastRequest(t); len(req.Query) != 0 {
		t.Errorf("Query = %v; want empty", req.Query)
	}
}

func TestClientNoCookieWhenUnauthenticated(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Respond("POST", "/api/parent/login", portal.Envelope{Status: portal.StatusSuccess, SessionID: "tok"})
	client := newTestClient(t, backend, "")

	creds := portal.Credentials{Email: "diop@example.com", Password: "s3cret"}
	if _, err := client.Login(context.Background(), creds); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if req := backend.LastRequest(t); req.Token != "" {
		t.Errorf("session cookie = %q; want none", req.Token)
	}
}

func TestClientUnauthorized(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.RespondStatus("GET", "/api/parent/children", 401)
	client := newTestClient(t, backend, "stale")

	_, err := client.Children(context.Background())
	if !errors.Is(err, portal.ErrUnauthorized) {
		t.Errorf("Children() = %v; want ErrUnauthorized", err)
	}
}

func TestClientSendMessageBody(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Respond("POST", "/api/parent/student/:id/messages", portal.Envelope{Status: portal.StatusSuccess, Message: "Message sent"})
	client := newTestClient(t, backend, "tok")

	msg := portal.NewMessage{TeacherID: 7, Subject: "Absence", Content: "Awa sera absente demain.", Priority: "high"}
	env, err := client.SendMessage(context.Background(), 42, msg)
	if err != nil {
		t.Fatalf("SendMessage() failed: %v", err)
	}
	if env.Message != "Message sent" {
		t.Errorf("Message = %q", env.Message)
	}

	req := backend.LastRequest(t)
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	var sent map[string]interface{}
	if err := json.Unmarshal(req.Body, &sent); err != nil {
		t.Fatalf("request body not JSON: %v", err)
	}
	if sent["teacher_id"] != float64(7) || sent["subject"] != "Absence" || sent["priority"] != "high" {
		t.Errorf("body = %v", sent)
	}
}

func TestClientDownloadReportEscapesID(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Respond("GET", "/api/parent/student/:id/reports/:report/download", portal.Envelope{
		Status: portal.StatusSuccess,
		Data:   json.RawMessage(`{"download_url":"/web/content/3","filename":"bulletin.pdf"}`),
	})
	client := newTestClient(t, backend, "tok")

	env, err := client.DownloadReport(context.Background(), 42, "bulletin_3")
	if err != nil {
		t.Fatalf("DownloadReport() failed: %v", err)
	}
	var dl portal.ReportDownload
	if err := env.Decode(&dl); err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if dl.Filename != "bulletin.pdf" {
		t.Errorf("Filename = %q", dl.Filename)
	}
	if req := backend.LastRequest(t); req.Path != "/api/parent/student/42/reports/bulletin_3/download" {
		t.Errorf("Path = %q", req.Path)
	}
}
