package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/baechuer/newslink/internal/client/surface"
	"github.com/baechuer/newslink/internal/domain"
)

func (a *app) health(ctx context.Context) error {
	if err := a.api.Health(ctx); err != nil {
		return err
	}
	status, err := a.api.HealthCheck(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", a.profile.Server, status)
	return nil
}

type credentials struct {
	email    string
	password string
	name     string
}

func parseCredentials(cmd string, args []string, withName bool) (credentials, error) {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	var c credentials
	fs.StringVar(&c.email, "email", "", "account email")
	fs.StringVar(&c.password, "password", "", "password (or NEWSLINK_PASSWORD)")
	if withName {
		fs.StringVar(&c.name, "name", "", "display name")
	}
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if c.password == "" {
		c.password = os.Getenv("NEWSLINK_PASSWORD")
	}
	if c.email == "" || c.password == "" {
		return c, fmt.Errorf("%w: %s needs --email and --password", errUsage, cmd)
	}
	return c, nil
}

func (a *app) signUp(ctx context.Context, args []string) error {
	c, err := parseCredentials("signup", args, true)
	if err != nil {
		return err
	}
	name := c.name
	if name == "" {
		name = strings.SplitN(c.email, "@", 2)[0]
	}
	data, err := a.api.SignUp(ctx, c.email, c.password, name)
	if err != nil {
		return err
	}
	return a.remember(data.User.Email)
}

func (a *app) login(ctx context.Context, args []string) error {
	c, err := parseCredentials("login", args, false)
	if err != nil {
		return err
	}
	data, err := a.api.SignIn(ctx, c.email, c.password)
	if err != nil {
		return err
	}
	return a.remember(data.User.Email)
}

func (a *app) remember(email string) error {
	a.profile.Token = a.api.Token()
	a.profile.Email = email
	if err := saveProfile(a.profilePath, a.profile); err != nil {
		return err
	}
	a.notify.Success("Signed in as " + email)
	return nil
}

// logout forgets the local token even if the server is unreachable.
func (a *app) logout(ctx context.Context) error {
	err := surface.SignOut(ctx, a.api, a.cache)
	a.profile.Token = ""
	a.profile.Email = ""
	if serr := saveProfile(a.profilePath, a.profile); serr != nil {
		return serr
	}
	if err != nil {
		return err
	}
	a.notify.Success("Signed out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess, err := a.api.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s) role=%s expires=%s\n",
		sess.User.Email, sess.User.ID, sess.User.Role, sess.Session.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

func (a *app) todos(ctx context.Context, args []string) error {
	if _, err := surface.NewGuard(a.api, a.notify).RequireSession(ctx); err != nil {
		return err
	}
	list := surface.NewNativeTodoList(a.api, a.cache, a.notify)

	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
	case "add":
		if err := list.Add(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
	case "toggle", "rm":
		id, err := parseTodoID(args)
		if err != nil {
			return err
		}
		if sub == "rm" {
			err = list.Remove(ctx, id)
		} else {
			err = a.toggle(ctx, list, id)
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown todos command %q", errUsage, sub)
	}
	return a.printTodos(ctx, list)
}

// toggle looks the todo up first because the server wants the new state.
// Ids that are not in the list are sent anyway and change nothing.
func (a *app) toggle(ctx context.Context, list *surface.TodoList, id int64) error {
	todos, err := list.Todos(ctx)
	if err != nil {
		return err
	}
	current := false
	for _, t := range todos {
		if t.ID == id {
			current = t.Completed
			break
		}
	}
	return list.Toggle(ctx, id, current)
}

func parseTodoID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one todo id", errUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid todo id %q", errUsage, args[0])
	}
	return id, nil
}

func (a *app) printTodos(ctx context.Context, list *surface.TodoList) error {
	todos, err := list.Todos(ctx)
	if err != nil {
		return err
	}
	done, total, err := list.Counts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\n", t.ID, mark, t.Text)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d/%d completed\n", done, total)
	return nil
}

func (a *app) users(ctx context.Context, args []string) error {
	if _, err := surface.NewGuard(a.api, a.notify).RequireAdmin(ctx); err != nil {
		return err
	}
	admin := surface.NewUserAdmin(a.api, a.cache, a.notify)

	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	var err error
	switch {
	case sub == "list" && len(args) == 0:
	case sub == "role" && len(args) == 2:
		role, perr := domain.ParseRole(args[1])
		if perr != nil {
			return perr
		}
		err = admin.SetRole(ctx, args[0], role)
	case sub == "ban" && len(args) == 1:
		err = admin.Ban(ctx, args[0])
	case sub == "unban" && len(args) == 1:
		err = admin.Unban(ctx, args[0])
	default:
		return fmt.Errorf("%w: users %s", errUsage, strings.Join(append([]string{sub}, args...), " "))
	}
	if err != nil {
		return err
	}

	page, err := admin.Users(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tBANNED")
	for _, u := range page.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, banLabel(u))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d of %d users\n", len(page.Users), page.Total)
	return nil
}

func banLabel(u domain.User) string {
	if !u.Banned {
		return "no"
	}
	if u.BanReason != nil {
		return "yes: " + *u.BanReason
	}
	return "yes"
}
