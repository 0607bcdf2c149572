package odoosvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edusync/portal/core"
	"github.com/edusync/portal/core/portal"
)

// TokenSource yields the current session token, or "" when unauthenticated.
// The local store implements it, so the token travels on every request the
// same way a browser cookie would.
type TokenSource interface {
	Token() string
}

// Client talks JSON over HTTP to the school-management backend (Odoo). One
// method per endpoint; responses are decoded into the envelope and returned
// unchanged, with no retries and no shape validation.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	cookieName string
	log        core.Logger
}

var _ portal.Client = (*Client)(nil)

func NewClient(conf *core.Config, tokens TokenSource, log core.Logger) (*Client, error) {
	u, err := url.Parse(conf.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base URL: %q", conf.BaseURL)
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: conf.RequestTimeout},
		tokens:     tokens,
		cookieName: conf.SessionCookie,
		log:        log,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody interface{}) (portal.Envelope, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return portal.Envelope{}, errors.Wrap(err, "json marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return portal.Envelope{}, errors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.tokens.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: token})
	}

	c.log.Debug(fmt.Sprintf("%s %s", method, u.Path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return portal.Envelope{}, errors.Wrap(err, "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return portal.Envelope{}, portal.ErrUnauthorized
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return portal.Envelope{}, errors.Wrap(err, "http read")
	}

	var env portal.Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return portal.Envelope{}, errors.Wrapf(err, "decoding response (status=%d)", resp.StatusCode)
	}
	return env, nil
}

func studentPath(studentID int, suffix string) string {
	return fmt.Sprintf("/api/parent/student/%d/%s", studentID, suffix)
}

func (c *Client) Login(ctx context.Context, creds portal.Credentials) (portal.Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/parent/login", nil, creds)
}

func (c *Client) Logout(ctx context.Context) (portal.Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/parent/logout", nil, nil)
}

func (c *Client) ChangePassword(ctx context.Context, change portal.PasswordChange) (portal.Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/parent/change-password", nil, change)
}

func (c *Client) Children(ctx context.Context) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, "/api/parent/children", nil, nil)
}

func (c *Client) StudentDashboard(ctx context.Context, studentID int) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "dashboard"), nil, nil)
}

func (c *Client) StudentInfo(ctx context.Context, studentID int) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "info"), nil, nil)
}

func (c *Client) StudentGrades(ctx context.Context, studentID int, filter portal.GradeFilter) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "grades"), filter.Values(), nil)
}

func (c *Client) StudentAttendance(ctx context.Context, studentID int, filter portal.AttendanceFilter) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "attendance"), filter.Values(), nil)
}

func (c *Client) StudentTimetable(ctx context.Context, studentID int, filter portal.TimetableFilter) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "timetable"), filter.Values(), nil)
}

func (c *Client) StudentFees(ctx context.Context, studentID int) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "fees"), nil, nil)
}

func (c *Client) StudentMessages(ctx context.Context, studentID int, filter portal.MessageFilter) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "messages"), filter.Values(), nil)
}

func (c *Client) SendMessage(ctx context.Context, studentID int, msg portal.NewMessage) (portal.Envelope, error) {
	return c.do(ctx, http.MethodPost, studentPath(studentID, "messages"), nil, msg)
}

func (c *Client) StudentTeachers(ctx context.Context, studentID int) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "teachers"), nil, nil)
}

func (c *Client) StudentReports(ctx context.Context, studentID int, filter portal.ReportFilter) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "reports"), filter.Values(), nil)
}

func (c *Client) DownloadReport(ctx context.Context, studentID int, reportID string) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "reports/"+url.PathEscape(reportID)+"/download"), nil, nil)
}

func (c *Client) AcademicPeriods(ctx context.Context, studentID int) (portal.Envelope, error) {
	return c.do(ctx, http.MethodGet, studentPath(studentID, "periods"), nil, nil)
}
