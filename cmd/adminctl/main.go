// adminctl is a terminal client for the attendance admin API. It drives
// the same gateway and controllers the console UI uses, which makes it
// both a day-to-day ops tool and an end-to-end exercise of the client
// stack.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"faceattend/internal/adminclient"
	"faceattend/internal/config"
	"faceattend/internal/listctl"
	"faceattend/internal/models"
	"faceattend/internal/paging"
)

func main() {
	log.SetFlags(0)

	apiBase := flag.String("api", config.Load().AdminAPIBase, "admin API base URL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	tokens := adminclient.NewFileTokenStore(adminclient.DefaultTokenPath())
	client := adminclient.New(*apiBase, tokens)
	client.OnUnauthorized = func() {
		log.Println("session expired, run `adminctl login` again")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch args[0] {
	case "login":
		err = cmdLogin(ctx, client, args[1:])
	case "logout":
		client.Logout()
		log.Println("signed out")
	case "me":
		err = cmdMe(ctx, client)
	case "users":
		err = cmdUsers(ctx, client, args[1:])
	case "departments":
		err = cmdDepartments(ctx, client, args[1:])
	case "events":
		err = cmdEvents(ctx, client, args[1:])
	case "attendance":
		err = cmdAttendance(ctx, client, args[1:])
	case "verify":
		err = cmdVerdict(ctx, client, args[1:], true)
	case "reject":
		err = cmdVerdict(ctx, client, args[1:], false)
	case "export":
		err = cmdExport(ctx, client, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("adminctl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: adminctl [-api URL] <command>

commands:
  login -email E -password P       sign in and store the session
  logout                           drop the stored session
  me                               show the signed-in user
  users [flags]                    list users (-search -role -department -active -page)
  users show <id>                  user detail with recent attendance
  users delete <id>                delete a user (asks for confirmation)
  users reset-password <id>        set a new password (asks for confirmation)
  departments [flags]              list departments (-search -page)
  events [flags]                   list events (-search -status -page)
  attendance [flags]               list records (-user -event -status -verification -start -end -page)
  verify <record-id> [-leg ...]    approve a check leg (checkIn|checkOut)
  reject <record-id> [-leg ...]    reject a check leg
  export users|attendance [flags]  download a CSV export`)
}

func cmdLogin(ctx context.Context, client *adminclient.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		return errors.New("login needs -email and -password")
	}
	sess, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	log.Printf("signed in as %s (%s)", sess.User.Name, sess.User.Role)
	return nil
}

func cmdMe(ctx context.Context, client *adminclient.Client) error {
	u, err := client.Me(ctx)
	if err != nil {
		return err
	}
	log.Printf("%s <%s> role=%s active=%t", u.Name, u.Email, u.Role, u.IsActive)
	return nil
}

func cmdUsers(ctx context.Context, client *adminclient.Client, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "show":
			if len(args) < 2 {
				return errors.New("users show needs an id")
			}
			return showUser(ctx, client, args[1])
		case "delete":
			if len(args) < 2 {
				return errors.New("users delete needs an id")
			}
			return deleteUser(ctx, client, args[1])
		case "reset-password":
			if len(args) < 2 {
				return errors.New("users reset-password needs an id")
			}
			return resetUserPassword(ctx, client, args[1], args[2:])
		}
	}

	fs := flag.NewFlagSet("users", flag.ExitOnError)
	search := fs.String("search", "", "name/email search")
	role := fs.String("role", "", "student|faculty|admin")
	department := fs.String("department", "", "department id")
	active := fs.String("active", "", "true|false")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	filters := adminclient.UserFilters{
		Search:     *search,
		Role:       *role,
		Department: *department,
		Active:     parseBoolFlag(*active),
	}

	ctl := listctl.New(
		func(ctx context.Context, q listctl.Query[adminclient.UserFilters]) ([]models.User, paging.Meta, error) {
			f := q.Filter
			f.Search = q.Search
			f.Page = q.Page
			res, err := client.ListUsers(ctx, f)
			return res.Users, res.Pagination, err
		},
		func(ctx context.Context) (adminclient.UserStats, error) {
			return client.UserStats(ctx)
		},
		listctl.LogNotifier{},
	)
	ctl.SetDebounce(0)
	ctl.SetFilter(ctx, filters)
	ctl.SetSearch(ctx, *search)
	ctl.SetPage(ctx, *page)
	ctl.Wait()
	if err := ctl.Err(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tDEPARTMENT\tACTIVE")
	for _, u := range ctl.Items() {
		dept := "N/A"
		if u.DepartmentName != nil {
			dept = *u.DepartmentName
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, dept, u.IsActive)
	}
	w.Flush()

	stats := ctl.Stats()
	meta := ctl.Meta()
	fmt.Printf("page %d/%d, %d total (%d active, %d inactive)\n",
		meta.Page, meta.TotalPages, stats.Total, stats.Active, stats.Inactive)
	return nil
}

func showUser(ctx context.Context, client *adminclient.Client, id string) error {
	var recent []models.AttendanceRecord
	detail := listctl.NewDetail(
		func(ctx context.Context, id string) (models.User, error) {
			return client.GetUser(ctx, id)
		},
		confirmPrompt,
		listctl.LogNotifier{},
		func(ctx context.Context, id string) error {
			res, err := client.ListAttendance(ctx, adminclient.AttendanceFilters{
				UserID: id,
				Start:  time.Now().AddDate(0, 0, -30).Format("2006-01-02"),
			})
			if err != nil {
				return err
			}
			recent = res.Records
			if len(recent) > 10 {
				recent = recent[:10]
			}
			return nil
		},
	)

	if err := detail.Load(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("user %s not found", id)
		}
		return err
	}

	u, _ := detail.Entity()
	fmt.Printf("%s\n  email: %s\n  role: %s\n  active: %t\n", u.Name, u.Email, u.Role, u.IsActive)
	if u.DepartmentName != nil {
		fmt.Printf("  department: %s\n", *u.DepartmentName)
	}
	if u.LastLoginAt != nil {
		fmt.Printf("  last login: %s\n", u.LastLoginAt.Format(time.RFC3339))
	}

	if len(recent) > 0 {
		fmt.Println("recent attendance:")
		for _, r := range recent {
			event := "N/A"
			if r.EventName != nil {
				event = *r.EventName
			}
			verdict := "verified"
			if !r.IsVerified() {
				verdict = "rejected"
			}
			fmt.Printf("  %s  %s  %-8s %s\n", r.Date.Format("2006-01-02"), event, r.Status, verdict)
		}
	}
	return nil
}

func deleteUser(ctx context.Context, client *adminclient.Client, id string) error {
	detail := listctl.NewDetail(
		func(ctx context.Context, id string) (models.User, error) {
			return client.GetUser(ctx, id)
		},
		confirmPrompt,
		listctl.LogNotifier{},
	)
	if err := detail.Load(ctx, id); err != nil {
		return err
	}
	u, _ := detail.Entity()
	return detail.Confirm(ctx, "delete",
		fmt.Sprintf("delete user %s <%s> and their attendance?", u.Name, u.Email),
		"user deleted",
		func(ctx context.Context) error {
			return client.DeleteUser(ctx, id)
		})
}

func resetUserPassword(ctx context.Context, client *adminclient.Client, id string, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	password := fs.String("password", "", "new password")
	_ = fs.Parse(args)
	if *password == "" {
		return errors.New("reset-password needs -password")
	}

	detail := listctl.NewDetail(
		func(ctx context.Context, id string) (models.User, error) {
			return client.GetUser(ctx, id)
		},
		confirmPrompt,
		listctl.LogNotifier{},
	)
	if err := detail.Load(ctx, id); err != nil {
		return err
	}
	u, _ := detail.Entity()
	return detail.Confirm(ctx, "reset-password",
		fmt.Sprintf("reset password for %s <%s>?", u.Name, u.Email),
		"password reset",
		func(ctx context.Context) error {
			return client.ResetUserPassword(ctx, id, *password)
		})
}

func cmdDepartments(ctx context.Context, client *adminclient.Client, args []string) error {
	fs := flag.NewFlagSet("departments", flag.ExitOnError)
	search := fs.String("search", "", "name search")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	res, err := client.ListDepartments(ctx, adminclient.DepartmentFilters{Search: *search, Page: *page})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCODE\tLOCATION\tACTIVE")
	for _, d := range res.Departments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", d.ID, d.Name, d.Code, d.Location, d.IsActive)
	}
	w.Flush()
	fmt.Printf("page %d/%d (%d total)\n", res.Pagination.Page, res.Pagination.TotalPages, res.Pagination.TotalCount)
	return nil
}

func cmdEvents(ctx context.Context, client *adminclient.Client, args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	search := fs.String("search", "", "name search")
	status := fs.String("status", "", "upcoming|active|completed")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	res, err := client.ListEvents(ctx, adminclient.EventFilters{Search: *search, Status: *status, Page: *page})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTART\tEND\tSTATUS")
	for _, e := range res.Events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name,
			e.StartAt.Format("2006-01-02 15:04"), e.EndAt.Format("2006-01-02 15:04"), e.Status)
	}
	w.Flush()
	fmt.Printf("page %d/%d (%d total)\n", res.Pagination.Page, res.Pagination.TotalPages, res.Pagination.TotalCount)
	return nil
}

func cmdAttendance(ctx context.Context, client *adminclient.Client, args []string) error {
	fs := flag.NewFlagSet("attendance", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	event := fs.String("event", "", "event id")
	status := fs.String("status", "", "present|late|absent")
	verification := fs.String("verification", "", "verified|pending|rejected")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	filters := adminclient.AttendanceFilters{
		UserID: *user, EventID: *event, Status: *status,
		Verification: *verification, Start: *start, End: *end,
	}

	ctl := listctl.New(
		func(ctx context.Context, q listctl.Query[adminclient.AttendanceFilters]) ([]models.AttendanceRecord, paging.Meta, error) {
			f := q.Filter
			f.Page = q.Page
			res, err := client.ListAttendance(ctx, f)
			return res.Records, res.Pagination, err
		},
		func(ctx context.Context) (adminclient.AttendanceStats, error) {
			return client.AttendanceStats(ctx, filters)
		},
		listctl.LogNotifier{},
	)
	ctl.SetDebounce(0)
	ctl.SetFilter(ctx, filters)
	ctl.SetPage(ctx, *page)
	ctl.Wait()
	if err := ctl.Err(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tUSER\tEVENT\tSTATUS\tVERDICT")
	for _, r := range ctl.Items() {
		userName := "Unknown User"
		if r.UserName != nil {
			userName = *r.UserName
		}
		eventName := "N/A"
		if r.EventName != nil {
			eventName = *r.EventName
		}
		verdict := "verified"
		if !r.IsVerified() {
			verdict = "rejected"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date.Format("2006-01-02"), userName, eventName, r.Status, verdict)
	}
	w.Flush()

	stats := ctl.Stats()
	meta := ctl.Meta()
	fmt.Printf("page %d/%d, %d total (%d present, %d late, %d absent, %d pending)\n",
		meta.Page, meta.TotalPages, stats.Total, stats.Present, stats.Late, stats.Absent, stats.PendingVerification)
	return nil
}

func cmdVerdict(ctx context.Context, client *adminclient.Client, args []string, approve bool) error {
	if len(args) < 1 {
		return errors.New("record id required")
	}
	id := args[0]
	fs := flag.NewFlagSet("verdict", flag.ExitOnError)
	leg := fs.String("leg", adminclient.LegCheckIn, "checkIn|checkOut")
	_ = fs.Parse(args[1:])

	if approve {
		if err := client.VerifyAttendance(ctx, id, *leg); err != nil {
			return err
		}
		log.Printf("record %s %s verified", id, *leg)
		return nil
	}
	if err := client.RejectAttendance(ctx, id, *leg); err != nil {
		return err
	}
	log.Printf("record %s %s rejected", id, *leg)
	return nil
}

func cmdExport(ctx context.Context, client *adminclient.Client, args []string) error {
	if len(args) < 1 {
		return errors.New("export needs a resource: users or attendance")
	}
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	out := fs.String("out", ".", "output directory")
	_ = fs.Parse(args[1:])

	var filename string
	var data []byte
	var err error
	switch args[0] {
	case "users":
		filename, data, err = client.ExportUsers(ctx, adminclient.UserFilters{}, *start, *end)
	case "attendance":
		filename, data, err = client.ExportAttendance(ctx, adminclient.AttendanceFilters{Start: *start, End: *end})
	default:
		return fmt.Errorf("unknown export resource %q", args[0])
	}
	if err != nil {
		return err
	}

	path := *out + string(os.PathSeparator) + filename
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Printf("wrote %s (%d bytes)", path, len(data))
	return nil
}

// confirmPrompt asks on stdin; anything but y/yes declines.
func confirmPrompt(ctx context.Context, prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func parseBoolFlag(s string) *bool {
	switch s {
	case "true":
		t := true
		return &t
	case "false":
		f := false
		return &f
	}
	return nil
}
