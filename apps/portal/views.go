package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/edusync/portal/core/portal"
)

// renderError prints a failed snapshot as an inline alert; view errors never
// abort the command.
func renderError(w io.Writer, msg string) {
	fmt.Fprintf(w, "error: %s\n", msg)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func renderChildren(w io.Writer, children []portal.Child) {
	if len(children) == 0 {
		fmt.Fprintln(w, "no children found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tCOURSE\tBATCH")
	for _, c := range children {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Course, c.Batch)
	}
	tw.Flush()
}

func renderDashboard(w io.Writer, snap portal.Snapshot[portal.Dashboard]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	d := snap.Data
	fmt.Fprintf(w, "%s", d.Student.Name)
	if d.Student.Course != "" {
		fmt.Fprintf(w, " - %s %s", d.Student.Course, d.Student.Batch)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "attendance: %.1f%% (%d/%d days)\n",
		d.Attendance.Percentage, d.Attendance.PresentDays, d.Attendance.TotalDays)
	fmt.Fprintf(w, "fees: %s paid of %s, %s outstanding\n",
		formatAmount(d.Fees.Paid), formatAmount(d.Fees.Total), formatAmount(d.Fees.Outstanding))

	fmt.Fprintln(w, "\nRecent grades:")
	if len(d.Grades) == 0 {
		fmt.Fprintln(w, "no records")
	} else {
		tw := newTable(w)
		fmt.Fprintln(tw, "SUBJECT\tEXAM\tMARK\tDATE")
		for _, g := range d.Grades {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				g.Subject, g.Exam, portal.FormatGrade(g.Marks, g.TotalMarks), g.Date)
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\nToday:")
	if len(d.TodaySchedule) == 0 {
		fmt.Fprintln(w, "no classes today")
		return
	}
	tw := newTable(w)
	for _, s := range d.TodaySchedule {
		fmt.Fprintf(tw, "%s-%s\t%s\t%s\t%s\n", s.StartTime, s.EndTime, s.Subject, s.Teacher, s.Classroom)
	}
	tw.Flush()
}

func renderStudentInfo(w io.Writer, snap portal.Snapshot[portal.StudentInfoPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	s := snap.Data.Student
	tw := newTable(w)
	fmt.Fprintf(tw, "Name:\t%s\n", s.Name)
	if s.GRNo != "" {
		fmt.Fprintf(tw, "GR No:\t%s\n", s.GRNo)
	}
	if s.BirthDate != "" {
		fmt.Fprintf(tw, "Born:\t%s\n", s.BirthDate)
	}
	if s.Gender != "" {
		fmt.Fprintf(tw, "Gender:\t%s\n", genderLabel(s.Gender))
	}
	if s.Email != "" {
		fmt.Fprintf(tw, "Email:\t%s\n", s.Email)
	}
	if s.Phone != "" {
		fmt.Fprintf(tw, "Phone:\t%s\n", s.Phone)
	}
	if s.Nationality != "" {
		fmt.Fprintf(tw, "Nationality:\t%s\n", s.Nationality)
	}
	if s.BloodGroup != "" {
		fmt.Fprintf(tw, "Blood group:\t%s\n", s.BloodGroup)
	}
	if addr := formatAddress(s); addr != "" {
		fmt.Fprintf(tw, "Address:\t%s\n", addr)
	}
	for _, c := range s.Courses {
		fmt.Fprintf(tw, "Course:\t%s %s\n", c.Course, c.Batch)
	}
	tw.Flush()
}

func renderGrades(w io.Writer, snap portal.Snapshot[portal.GradesPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	p := snap.Data
	if len(p.Grades) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SUBJECT\tEXAM\tMARK\tCLASS AVG\tDATE")
	for _, g := range p.Grades {
		exam := g.ExamName
		if exam == "" {
			exam = g.EvaluationType
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			g.SubjectName, exam,
			portal.FormatGrade(g.Grade, g.Max()),
			formatAverage(g.ClassAverage), g.Date)
	}
	tw.Flush()

	st := p.Statistics
	fmt.Fprintf(w, "\naverage: %s  best: %s", formatAverage(st.AverageGrade), formatAverage(st.BestGrade))
	if st.ClassRank > 0 && st.TotalStudents > 0 {
		fmt.Fprintf(w, "  rank: %d/%d", st.ClassRank, st.TotalStudents)
	}
	fmt.Fprintln(w)
}

func renderAttendance(w io.Writer, snap portal.Snapshot[portal.AttendancePayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	p := snap.Data
	if len(p.Attendance) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tSUBJECT\tSTATUS\tREMARKS")
	for _, a := range p.Attendance {
		subject := a.SubjectName
		if subject == "" {
			subject = a.SessionName
		}
		remarks := a.Remarks
		if remarks == "" {
			remarks = a.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Date, subject, a.Status, remarks)
	}
	tw.Flush()

	st := p.Statistics
	fmt.Fprintf(w, "\nrate: %.1f%%  present: %d  absent: %d  late: %d\n",
		st.AttendanceRate, st.PresentDays, st.AbsentDays, st.LateDays)
}

func renderTimetable(w io.Writer, snap portal.Snapshot[portal.TimetablePayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	slots := snap.Data.Timetable
	if len(slots) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DAY\tTIME\tSUBJECT\tTEACHER\tROOM")
	for _, s := range slots {
		fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s\n",
			s.Day, s.StartTime, s.EndTime, s.SubjectName, s.TeacherName, s.Classroom)
	}
	tw.Flush()
}

func renderFees(w io.Writer, snap portal.Snapshot[portal.FeesPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	p := snap.Data
	if len(p.Fees) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TYPE\tDUE\tTOTAL\tPAID\tREMAINING\tSTATUS")
	for _, f := range p.Fees {
		typ := f.FeeType
		if typ == "" {
			typ = f.Description
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			typ, f.DueDate,
			formatAmount(f.TotalAmount), formatAmount(f.PaidAmount),
			formatAmount(f.RemainingAmount), f.Status)
	}
	tw.Flush()

	s := p.Summary
	fmt.Fprintf(w, "\ntotal: %s  paid: %s (%.1f%%)  balance: %s\n",
		formatAmount(s.TotalFees), formatAmount(s.PaidAmount),
		s.PaymentPercentage, formatAmount(s.RemainingBalance))
}

func renderMessages(w io.Writer, snap portal.Snapshot[portal.MessagesPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	p := snap.Data
	if len(p.Messages) == 0 {
		fmt.Fprintln(w, "no messages")
		return
	}
	for _, m := range p.Messages {
		marker := " "
		if !m.IsRead && !m.IsFromParent {
			marker = "*"
		}
		from := m.SenderName
		if m.IsFromParent {
			from = "me -> " + m.RecipientName
		}
		fmt.Fprintf(w, "%s [%d] %s  (%s, %s)\n", marker, m.ID, m.Subject, from, m.CreatedAt)
		fmt.Fprintf(w, "    %s\n", m.Content)
		for _, a := range m.Attachments {
			fmt.Fprintf(w, "    attachment: %s (%d bytes)\n", a.Name, a.Size)
		}
	}
	if p.Pagination.Pages > 1 {
		fmt.Fprintf(w, "page %d of %d (%d messages)\n",
			p.Pagination.Page, p.Pagination.Pages, p.Pagination.Total)
	}
}

func renderTeachers(w io.Writer, snap portal.Snapshot[portal.TeachersPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	teachers := snap.Data.Teachers
	if len(teachers) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tSUBJECTS\tEMAIL")
	for _, t := range teachers {
		role := t.Role
		if t.IsMainTeacher {
			role = "main teacher"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name, role, joinSubjects(t.Subjects), t.Email)
	}
	tw.Flush()
}

func renderReports(w io.Writer, snap portal.Snapshot[portal.ReportsPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	p := snap.Data
	if len(p.Reports) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDATE\tSIZE")
	for _, r := range p.Reports {
		size := ""
		if r.FileSize > 0 {
			size = fmt.Sprintf("%d bytes", r.FileSize)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Type, r.CreateDate, size)
	}
	tw.Flush()
	if p.Pagination.Pages > 1 {
		fmt.Fprintf(w, "page %d of %d (%d reports)\n",
			p.Pagination.Page, p.Pagination.Pages, p.Pagination.Total)
	}
}

func renderPeriods(w io.Writer, snap portal.Snapshot[portal.PeriodsPayload]) {
	if snap.State == portal.StateErrored {
		renderError(w, snap.Err)
		return
	}
	periods := snap.Data.Periods
	if len(periods) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tFROM\tTO\t")
	for _, p := range periods {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.StartDate, p.EndDate, currentMark(p.IsCurrent))
		for _, t := range p.Terms {
			fmt.Fprintf(tw, "%s\t  %s\t%s\t%s\t%s\n", t.ID, t.Name, t.StartDate, t.EndDate, currentMark(t.IsCurrent))
		}
	}
	tw.Flush()
}

// formatAverage renders averages with one decimal, e.g. "14.2/20".
func formatAverage(avg float64) string {
	return fmt.Sprintf("%.1f/20", avg)
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func genderLabel(g string) string {
	switch g {
	case "m":
		return "male"
	case "f":
		return "female"
	case "o":
		return "other"
	}
	return g
}

func formatAddress(s portal.StudentInfo) string {
	addr := ""
	for _, part := range []string{s.Street, s.City, s.Zip, s.Country} {
		if part == "" {
			continue
		}
		if addr != "" {
			addr += ", "
		}
		addr += part
	}
	return addr
}

func joinSubjects(subjects []string) string {
	return strings.Join(subjects, ", ")
}

func currentMark(current bool) string {
	if current {
		return "current"
	}
	return ""
}
