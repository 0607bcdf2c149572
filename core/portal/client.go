package portal

import (
	"context"
	"net/url"
	"strconv"
)

// Client is the remote resource client: one method per backend endpoint.
// Methods return the decoded response envelope unchanged; callers classify
// the outcome (see Resource and Session). Transport failures come back as
// errors, an HTTP 401 as ErrUnauthorized.
type Client interface {
	Login(ctx context.Context, creds Credentials) (Envelope, error)
	Logout(ctx context.Context) (Envelope, error)
	ChangePassword(ctx context.Context, change PasswordChange) (Envelope, error)
	Children(ctx context.Context) (Envelope, error)

	StudentDashboard(ctx context.Context, studentID int) (Envelope, error)
	StudentInfo(ctx context.Context, studentID int) (Envelope, error)
	StudentGrades(ctx context.Context, studentID int, filter GradeFilter) (Envelope, error)
	StudentAttendance(ctx context.Context, studentID int, filter AttendanceFilter) (Envelope, error)
	StudentTimetable(ctx context.Context, studentID int, filter TimetableFilter) (Envelope, error)
	StudentFees(ctx context.Context, studentID int) (Envelope, error)
	StudentMessages(ctx context.Context, studentID int, filter MessageFilter) (Envelope, error)
	SendMessage(ctx context.Context, studentID int, msg NewMessage) (Envelope, error)
	StudentTeachers(ctx context.Context, studentID int) (Envelope, error)
	StudentReports(ctx context.Context, studentID int, filter ReportFilter) (Envelope, error)
	DownloadReport(ctx context.Context, studentID int, reportID string) (Envelope, error)
	AcademicPeriods(ctx context.Context, studentID int) (Envelope, error)
}

// Filters serialize to query strings; zero values are omitted, matching the
// portal's convention of dropping undefined keys.

type GradeFilter struct {
	Period  string `query:"period"`
	Subject string `query:"subject"`
}

func (f GradeFilter) Values() url.Values {
	v := make(url.Values)
	setStr(v, "period", f.Period)
	setStr(v, "subject", f.Subject)
	return v
}

type AttendanceFilter struct {
	Month int `query:"month"`
	Year  int `query:"year"`
}

func (f AttendanceFilter) Values() url.Values {
	v := make(url.Values)
	setInt(v, "month", f.Month)
	setInt(v, "year", f.Year)
	return v
}

type TimetableFilter struct {
	Week string `query:"week"`
}

func (f TimetableFilter) Values() url.Values {
	v := make(url.Values)
	setStr(v, "week", f.Week)
	return v
}

type MessageFilter struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

func (f MessageFilter) Values() url.Values {
	v := make(url.Values)
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

type ReportFilter struct {
	Type  string `query:"type"` // all, academic, behavioral, medical
	Page  int    `query:"page"`
	Limit int    `query:"limit"`
}

func (f ReportFilter) Values() url.Values {
	v := make(url.Values)
	setStr(v, "type", f.Type)
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	return v
}

func setStr(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, val int) {
	if val != 0 {
		v.Set(key, strconv.Itoa(val))
	}
}
