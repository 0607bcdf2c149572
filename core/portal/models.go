package portal

import (
	"encoding/json"
	"strconv"
)

// Backend response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInfo    = "info"
)

// Envelope is the {status, data, message} JSON shape returned by every
// backend endpoint. Login additionally carries the session token and the
// parent profile at the top level.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`

	SessionID string   `json:"session_id,omitempty"`
	Parent    *Profile `json:"parent,omitempty"`
}

// OK reports whether the backend accepted the request.
func (e Envelope) OK() bool { return e.Status == StatusSuccess }

// Decode unmarshals the envelope's data payload into out. An absent or null
// payload leaves out at its zero value; callers default missing
// sub-collections to empty, never fail on them.
func (e Envelope) Decode(out interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// FlexID holds identifiers the backend emits either as JSON numbers
// (attachment ids) or strings (generated ids like "bulletin_3").
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

// Child is a dependent associated with the authenticated parent.
type Child struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Course string `json:"course,omitempty"`
	Batch  string `json:"batch,omitempty"`
}

// Profile is the authenticated parent as cached client-side.
// The server remains the source of truth.
type Profile struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone,omitempty"`
	Children []Child `json:"children,omitempty"`
}

// ChildByID returns the child with the given id, if any.
func (p Profile) ChildByID(id int) (Child, bool) {
	for _, c := range p.Children {
		if c.ID == id {
			return c, true
		}
	}
	return Child{}, false
}

type Grade struct {
	ID             int     `json:"id"`
	SubjectName    string  `json:"subject_name"`
	ExamName       string  `json:"exam_name,omitempty"`
	EvaluationType string  `json:"evaluation_type,omitempty"`
	Grade          float64 `json:"grade"`
	MaxGrade       float64 `json:"max_grade"`
	Coefficient    float64 `json:"coefficient,omitempty"`
	ClassAverage   float64 `json:"class_average,omitempty"`
	Date           string  `json:"date,omitempty"`
	Comment        string  `json:"comment,omitempty"`
}

// Max returns the grading scale, defaulting to /20 as the backend does.
func (g Grade) Max() float64 {
	if g.MaxGrade > 0 {
		return g.MaxGrade
	}
	return 20
}

type GradeStatistics struct {
	AverageGrade  float64 `json:"average_grade"`
	BestGrade     float64 `json:"best_grade"`
	ClassRank     int     `json:"class_rank,omitempty"`
	TotalStudents int     `json:"total_students,omitempty"`
}

type GradesPayload struct {
	Grades     []Grade         `json:"grades"`
	Statistics GradeStatistics `json:"statistics"`
}

// Attendance record statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

type AttendanceRecord struct {
	ID          int    `json:"id"`
	Date        string `json:"date"`
	SubjectName string `json:"subject_name,omitempty"`
	SessionName string `json:"session_name,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Status      string `json:"status"`
	TeacherName string `json:"teacher_name,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type AttendanceStatistics struct {
	AttendanceRate float64 `json:"attendance_rate"`
	PresentDays    int     `json:"present_days"`
	AbsentDays     int     `json:"absent_days"`
	LateDays       int     `json:"late_days"`
	ExcusedDays    int     `json:"excused_days,omitempty"`
	TotalDays      int     `json:"total_days,omitempty"`
}

type AttendancePayload struct {
	Attendance []AttendanceRecord   `json:"attendance"`
	Statistics AttendanceStatistics `json:"statistics"`
}

// Fee line statuses.
const (
	FeePaid    = "paid"
	FeePartial = "partial"
	FeePending = "pending"
	FeeOverdue = "overdue"
)

type FeeLine struct {
	ID              int     `json:"id"`
	FeeType         string  `json:"fee_type,omitempty"`
	Description     string  `json:"description,omitempty"`
	DueDate         string  `json:"due_date,omitempty"`
	TotalAmount     float64 `json:"total_amount"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	Status          string  `json:"status"`
}

type FeeSummary struct {
	TotalFees         float64 `json:"total_fees"`
	PaidAmount        float64 `json:"paid_amount"`
	RemainingBalance  float64 `json:"remaining_balance"`
	PaymentPercentage float64 `json:"payment_percentage"`
}

type FeesPayload struct {
	Fees    []FeeLine  `json:"fees"`
	Summary FeeSummary `json:"summary"`
}

type TimetableSlot struct {
	ID          int    `json:"id"`
	Day         string `json:"day,omitempty"`
	SubjectName string `json:"subject_name"`
	TeacherName string `json:"teacher_name,omitempty"`
	Classroom   string `json:"classroom,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

type TimetablePayload struct {
	Timetable []TimetableSlot `json:"timetable"`
}

type MessageAttachment struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Message struct {
	ID            int                 `json:"id"`
	Subject       string              `json:"subject"`
	Content       string              `json:"content"`
	CreatedAt     string              `json:"created_at,omitempty"`
	SenderID      int                 `json:"sender_id,omitempty"`
	SenderName    string              `json:"sender_name,omitempty"`
	RecipientName string              `json:"recipient_name,omitempty"`
	IsFromParent  bool                `json:"is_from_parent"`
	MessageType   string              `json:"message_type,omitempty"`
	IsRead        bool                `json:"is_read"`
	IsStarred     bool                `json:"is_starred"`
	Priority      string              `json:"priority,omitempty"`
	Attachments   []MessageAttachment `json:"attachments,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type MessagesPayload struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

type Teacher struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Role          string   `json:"role,omitempty"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Subjects      []string `json:"subjects,omitempty"`
	IsMainTeacher bool     `json:"is_main_teacher"`
}

type TeachersPayload struct {
	Teachers []Teacher `json:"teachers"`
}

type Report struct {
	ID          FlexID `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"` // academic, behavioral, medical, other
	Description string `json:"description,omitempty"`
	CreateDate  string `json:"create_date,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	Mimetype    string `json:"mimetype,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	IsGenerated bool   `json:"is_generated,omitempty"`
}

type ReportsPayload struct {
	Reports    []Report   `json:"reports"`
	Pagination Pagination `json:"pagination"`
}

// ReportDownload is the resolved download location for a stored report.
type ReportDownload struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size,omitempty"`
	Mimetype    string `json:"mimetype,omitempty"`
}

type AcademicTerm struct {
	ID        FlexID `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	State     string `json:"state,omitempty"`
	IsCurrent bool   `json:"is_current"`
}

type AcademicPeriod struct {
	ID        FlexID         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type,omitempty"`
	StartDate string         `json:"start_date,omitempty"`
	EndDate   string         `json:"end_date,omitempty"`
	State     string         `json:"state,omitempty"`
	IsCurrent bool           `json:"is_current"`
	Terms     []AcademicTerm `json:"terms,omitempty"`
}

type PeriodsPayload struct {
	Periods []AcademicPeriod `json:"periods"`
	Total   int              `json:"total,omitempty"`
}

type CourseInfo struct {
	Course string `json:"course,omitempty"`
	Batch  string `json:"batch,omitempty"`
}

type StudentInfo struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	GRNo        string       `json:"gr_no,omitempty"`
	BirthDate   string       `json:"birth_date,omitempty"`
	Gender      string       `json:"gender,omitempty"` // m, f, o
	Email       string       `json:"email,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Nationality string       `json:"nationality,omitempty"`
	BloodGroup  string       `json:"blood_group,omitempty"`
	Street      string       `json:"street,omitempty"`
	City        string       `json:"city,omitempty"`
	Zip         string       `json:"zip,omitempty"`
	Country     string       `json:"country,omitempty"`
	Courses     []CourseInfo `json:"courses,omitempty"`
}

type StudentInfoPayload struct {
	Student StudentInfo `json:"student"`
}

type DashboardStudent struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Course string `json:"course,omitempty"`
	Batch  string `json:"batch,omitempty"`
}

type DashboardAttendance struct {
	PresentDays int     `json:"present_days"`
	TotalDays   int     `json:"total_days"`
	Percentage  float64 `json:"percentage"`
}

type DashboardGrade struct {
	ID         int     `json:"id"`
	Subject    string  `json:"subject"`
	Exam       string  `json:"exam"`
	Marks      float64 `json:"marks"`
	TotalMarks float64 `json:"total_marks"`
	Percentage float64 `json:"percentage"`
	Date       string  `json:"date,omitempty"`
}

type DashboardFees struct {
	Total       float64 `json:"total"`
	Paid        float64 `json:"paid"`
	Outstanding float64 `json:"outstanding"`
}

type ScheduleItem struct {
	ID        int    `json:"id"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Classroom string `json:"classroom,omitempty"`
}

type Dashboard struct {
	Student       DashboardStudent    `json:"student"`
	Attendance    DashboardAttendance `json:"attendance"`
	Grades        []DashboardGrade    `json:"grades"`
	Fees          DashboardFees       `json:"fees"`
	TodaySchedule []ScheduleItem      `json:"today_schedule"`
}

type ChildrenPayload struct {
	Children []Child `json:"children"`
}

// FormatGrade renders a mark on its scale the way the portal displays it,
// e.g. 14.2 on 20 -> "14.2/20".
func FormatGrade(grade, max float64) string {
	if max <= 0 {
		max = 20
	}
	return trimFloat(grade) + "/" + trimFloat(max)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
