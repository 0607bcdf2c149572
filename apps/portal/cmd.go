package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/edusync/portal/core/portal"
)

var (
	stdin io.Reader = os.Stdin

	readPasswordFunc = term.ReadPassword // mockable
	readBodyFunc     = defaultReadBody   // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in; run `portal login -email you@example.com` first")
)

type commandLine struct {
	client  portal.Client
	session *portal.Session
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                        - log in (password prompted)")
	fmt.Fprintln(cli.out, "  logout                                    - log out and forget the session")
	fmt.Fprintln(cli.out, "  passwd                                    - change password (prompted)")
	fmt.Fprintln(cli.out, "  children                                  - list your children")
	fmt.Fprintln(cli.out, "  dashboard  [-child ID]                    - overview for one child")
	fmt.Fprintln(cli.out, "  info       [-child ID]                    - detailed child record")
	fmt.Fprintln(cli.out, "  grades     [-child ID] [-period P] [-subject S]")
	fmt.Fprintln(cli.out, "  attendance [-child ID] [-month M] [-year Y]")
	fmt.Fprintln(cli.out, "  timetable  [-child ID] [-week W]")
	fmt.Fprintln(cli.out, "  fees       [-child ID]")
	fmt.Fprintln(cli.out, "  messages   [-child ID] [-page N] [-limit N]")
	fmt.Fprintln(cli.out, "  send       [-child ID] -teacher ID -subject S [-priority P]  (body on stdin)")
	fmt.Fprintln(cli.out, "  teachers   [-child ID]")
	fmt.Fprintln(cli.out, "  reports    [-child ID] [-type T] [-page N]")
	fmt.Fprintln(cli.out, "  download   [-child ID] -report ID         - resolve a report download")
	fmt.Fprintln(cli.out, "  periods    [-child ID]                    - academic periods")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "login":
		return cli.login(ctx, args[2:])
	case "logout":
		return cli.logout(ctx)
	case "passwd":
		return cli.changePassword(ctx)
	case "children":
		return cli.children(ctx)
	case "dashboard":
		return cli.dashboard(ctx, args[2:])
	case "info":
		return cli.info(ctx, args[2:])
	case "grades":
		return cli.grades(ctx, args[2:])
	case "attendance":
		return cli.attendance(ctx, args[2:])
	case "timetable":
		return cli.timetable(ctx, args[2:])
	case "fees":
		return cli.fees(ctx, args[2:])
	case "messages":
		return cli.messages(ctx, args[2:])
	case "send":
		return cli.send(ctx, args[2:])
	case "teachers":
		return cli.teachers(ctx, args[2:])
	case "reports":
		return cli.reports(ctx, args[2:])
	case "download":
		return cli.download(ctx, args[2:])
	case "periods":
		return cli.periods(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// requireSession restores the persisted session and fails when no valid one
// exists. Detail commands never run unauthenticated.
func (cli *commandLine) requireSession(ctx context.Context) (portal.Profile, error) {
	if err := cli.session.Restore(ctx); err != nil {
		return portal.Profile{}, err
	}
	if cli.session.State() != portal.Authenticated {
		return portal.Profile{}, errNotLoggedIn
	}
	return cli.session.Profile(), nil
}

// selectChild picks the dependent all detail queries are keyed by. An
// explicit id must belong to the profile; without one, a single child is
// implied and multiple children require the flag.
func (cli *commandLine) selectChild(prof portal.Profile, id int) (portal.Child, error) {
	if id > 0 {
		if ch, ok := prof.ChildByID(id); ok {
			return ch, nil
		}
		return portal.Child{}, fmt.Errorf("no child with id %d; run `portal children`", id)
	}
	if len(prof.Children) == 1 {
		return prof.Children[0], nil
	}
	if len(prof.Children) == 0 {
		return portal.Child{}, portal.ErrNoChildSelected
	}
	return portal.Child{}, errors.New("several children found; pass -child ID (see `portal children`)")
}

// load runs one view fetch through the shared resource controller. The
// loading line is printed by a subscriber when the resource enters Loading,
// the same transition a mounted view observes.
func load[T any](cli *commandLine, ctx context.Context, fetch portal.FetchFunc, empty T, loading, fallback string) portal.Snapshot[T] {
	res := portal.NewResource(fetch, portal.Extract[T](), empty,
		portal.WithFallback[T](fallback),
		portal.WithUnauthorizedHook[T](cli.session.HandleUnauthorized),
	)
	res.Subscribe(func(snap portal.Snapshot[T]) {
		if snap.State == portal.StateLoading {
			fmt.Fprintln(cli.out, loading)
		}
	})
	return res.Load(ctx)
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "The parent's email. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	creds := portal.Credentials{Email: *email, Password: string(pwd)}
	if err := cli.session.Establish(ctx, creds); err != nil {
		return err
	}

	prof := cli.session.Profile()
	fmt.Fprintf(cli.out, "logged in as %s\n", displayName(prof))
	renderChildren(cli.out, prof.Children)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	cli.session.Teardown(ctx)
	fmt.Fprintln(cli.out, "logged out")
	return nil
}

func (cli *commandLine) changePassword(ctx context.Context) error {
	if _, err := cli.requireSession(ctx); err != nil {
		return err
	}

	fmt.Fprint(cli.out, "New password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.out, "Confirm password:")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}

	change := portal.PasswordChange{NewPassword: string(pwd), ConfirmPassword: string(confirm)}
	if err := change.Validate(); err != nil {
		return err
	}

	env, err := cli.client.ChangePassword(ctx, change)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			cli.session.HandleUnauthorized()
			return errors.New(portal.MsgSessionExpired)
		}
		return errors.New(portal.ClassifyTransportError(err))
	}
	if !env.OK() {
		return errors.New(messageOr(env, "unable to change password"))
	}
	fmt.Fprintln(cli.out, messageOr(env, "password updated"))
	return nil
}

func (cli *commandLine) children(ctx context.Context) error {
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	renderChildren(cli.out, prof.Children)
	return nil
}

func (cli *commandLine) dashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentDashboard(ctx, ch.ID)
	}, portal.Dashboard{}, fmt.Sprintf("loading dashboard for %s ...", ch.Name), "unable to load dashboard")
	renderDashboard(cli.out, snap)
	return nil
}

func (cli *commandLine) info(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentInfo(ctx, ch.ID)
	}, portal.StudentInfoPayload{}, fmt.Sprintf("loading record for %s ...", ch.Name), "unable to load student record")
	renderStudentInfo(cli.out, snap)
	return nil
}

func (cli *commandLine) grades(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("grades", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	period := fs.String("period", "", "academic period, e.g. trimestre1")
	subject := fs.String("subject", "", "subject filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	filter := portal.GradeFilter{Period: *period, Subject: *subject}
	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentGrades(ctx, ch.ID, filter)
	}, portal.GradesPayload{}, fmt.Sprintf("loading grades for %s ...", ch.Name), "unable to load grades")
	renderGrades(cli.out, snap)
	return nil
}

func (cli *commandLine) attendance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("attendance", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	month := fs.Int("month", 0, "month (1-12)")
	year := fs.Int("year", 0, "year")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	filter := portal.AttendanceFilter{Month: *month, Year: *year}
	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentAttendance(ctx, ch.ID, filter)
	}, portal.AttendancePayload{}, fmt.Sprintf("loading attendance for %s ...", ch.Name), "unable to load attendance")
	renderAttendance(cli.out, snap)
	return nil
}

func (cli *commandLine) timetable(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("timetable", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	week := fs.String("week", "", "week filter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	filter := portal.TimetableFilter{Week: *week}
	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentTimetable(ctx, ch.ID, filter)
	}, portal.TimetablePayload{}, fmt.Sprintf("loading timetable for %s ...", ch.Name), "unable to load timetable")
	renderTimetable(cli.out, snap)
	return nil
}

func (cli *commandLine) fees(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fees", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentFees(ctx, ch.ID)
	}, portal.FeesPayload{}, fmt.Sprintf("loading fees for %s ...", ch.Name), "unable to load fees")
	renderFees(cli.out, snap)
	return nil
}

func (cli *commandLine) messages(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("messages", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	filter := portal.MessageFilter{Page: *page, Limit: *limit}
	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentMessages(ctx, ch.ID, filter)
	}, portal.MessagesPayload{}, fmt.Sprintf("loading messages for %s ...", ch.Name), "unable to load messages")
	renderMessages(cli.out, snap)
	return nil
}

func (cli *commandLine) send(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	teacherID := fs.Int("teacher", 0, "recipient teacher id (see `portal teachers`)")
	subject := fs.String("subject", "", "message subject")
	priority := fs.String("priority", "", "low, normal or high")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	fmt.Fprintln(cli.out, "Enter message body, end with Ctrl-D:")
	body, err := readBodyFunc()
	if err != nil {
		return err
	}

	msg := portal.NewMessage{
		TeacherID: *teacherID,
		Subject:   *subject,
		Content:   body,
		Priority:  *priority,
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	env, err := cli.client.SendMessage(ctx, ch.ID, msg)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			cli.session.HandleUnauthorized()
			return errors.New(portal.MsgSessionExpired)
		}
		return errors.New(portal.ClassifyTransportError(err))
	}
	if !env.OK() {
		// the composed message is not discarded on failure; the caller may retry
		return errors.New(messageOr(env, "unable to send message"))
	}
	fmt.Fprintln(cli.out, messageOr(env, "message sent"))

	// sending re-triggers the message-list fetch
	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentMessages(ctx, ch.ID, portal.MessageFilter{})
	}, portal.MessagesPayload{}, "refreshing messages ...", "unable to load messages")
	renderMessages(cli.out, snap)
	return nil
}

func (cli *commandLine) teachers(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("teachers", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentTeachers(ctx, ch.ID)
	}, portal.TeachersPayload{}, fmt.Sprintf("loading teachers for %s ...", ch.Name), "unable to load teachers")
	renderTeachers(cli.out, snap)
	return nil
}

func (cli *commandLine) reports(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	typ := fs.String("type", "", "all, academic, behavioral or medical")
	page := fs.Int("page", 0, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	filter := portal.ReportFilter{Type: *typ, Page: *page}
	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.StudentReports(ctx, ch.ID, filter)
	}, portal.ReportsPayload{}, fmt.Sprintf("loading reports for %s ...", ch.Name), "unable to load reports")
	renderReports(cli.out, snap)
	return nil
}

func (cli *commandLine) download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	reportID := fs.String("report", "", "report id (see `portal reports`)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *reportID == "" {
		fs.Usage()
		return errHelp
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	env, err := cli.client.DownloadReport(ctx, ch.ID, *reportID)
	if err != nil {
		if errors.Is(err, portal.ErrUnauthorized) {
			cli.session.HandleUnauthorized()
			return errors.New(portal.MsgSessionExpired)
		}
		return errors.New(portal.ClassifyTransportError(err))
	}
	switch env.Status {
	case portal.StatusSuccess:
		var dl portal.ReportDownload
		if err := env.Decode(&dl); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%s (%s, %d bytes)\n%s\n", dl.Filename, dl.Mimetype, dl.Size, dl.DownloadURL)
		return nil
	case portal.StatusInfo:
		// generated bulletins may not be downloadable yet
		fmt.Fprintln(cli.out, messageOr(env, "report not ready"))
		return nil
	default:
		return errors.New(messageOr(env, "unable to download report"))
	}
}

func (cli *commandLine) periods(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("periods", flag.ContinueOnError)
	childID := fs.Int("child", 0, "child id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prof, err := cli.requireSession(ctx)
	if err != nil {
		return err
	}
	ch, err := cli.selectChild(prof, *childID)
	if err != nil {
		return err
	}

	snap := load(cli, ctx, func(ctx context.Context) (portal.Envelope, error) {
		return cli.client.AcademicPeriods(ctx, ch.ID)
	}, portal.PeriodsPayload{}, fmt.Sprintf("loading academic periods for %s ...", ch.Name), "unable to load academic periods")
	renderPeriods(cli.out, snap)
	return nil
}

func defaultReadBody() (string, error) {
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func messageOr(env portal.Envelope, fallback string) string {
	if env.Message != "" {
		return env.Message
	}
	return fallback
}

func displayName(prof portal.Profile) string {
	if prof.Name != "" {
		return prof.Name
	}
	return prof.Email
}
