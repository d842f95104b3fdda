// newslink is a terminal client for the newslink API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/baechuer/newslink/internal/client/query"
	"github.com/baechuer/newslink/internal/client/rpcclient"
	"github.com/baechuer/newslink/internal/client/surface"
	"github.com/baechuer/newslink/internal/logger"
)

const usage = `Usage: newslink [global flags] <command> [args]

Commands:
  health                          check the server
  signup --email E --password P   create an account and sign in
  login --email E --password P    sign in
  logout                          sign out
  whoami                          show the current session
  todos [list|add TEXT|toggle ID|rm ID]
  users [list|role ID ROLE|ban ID|unban ID]   (admin)

Global flags:
`

// errUsage marks errors that should print the usage text.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app is one CLI invocation.
type app struct {
	profilePath string
	profile     Profile

	api    *rpcclient.Client
	cache  *query.Client
	notify surface.Notifier
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("newslink", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	profilePath := flags.String("profile", "", "profile file (default: <user config dir>/newslink/profile.yaml)")
	server := flags.String("server", "", "server base URL; saved to the profile")
	verbose := flags.BoolP("verbose", "v", false, "log requests to stderr")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *verbose {
		logger.InitWithWriter(stderr)
	} else {
		logger.InitWithWriter(io.Discard)
	}

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return errUsage
	}

	a := &app{profilePath: *profilePath, out: stdout, notify: surface.NewWriterNotifier(stderr)}
	if a.profilePath == "" {
		p, err := defaultProfilePath()
		if err != nil {
			return err
		}
		a.profilePath = p
	}

	prof, err := loadProfile(a.profilePath)
	if err != nil {
		return err
	}
	if *server != "" && *server != prof.Server {
		prof.Server = *server
		// a token from another server is useless
		prof.Token = ""
		prof.Email = ""
		if err := saveProfile(a.profilePath, prof); err != nil {
			return err
		}
	}
	a.profile = prof

	cfg := rpcclient.DefaultConfig(prof.Server)
	cfg.Token = prof.Token
	a.api, err = rpcclient.New(cfg)
	if err != nil {
		return err
	}
	a.cache = surface.NewCache(a.notify, query.Config{})
	defer a.cache.Close()

	cmd, cmdArgs := rest[0], rest[1:]
	var cmdErr error
	switch cmd {
	case "health":
		cmdErr = a.health(ctx)
	case "signup":
		cmdErr = a.signUp(ctx, cmdArgs)
	case "login":
		cmdErr = a.login(ctx, cmdArgs)
	case "logout":
		cmdErr = a.logout(ctx)
	case "whoami":
		cmdErr = a.whoami(ctx)
	case "todos":
		cmdErr = a.todos(ctx, cmdArgs)
	case "users":
		cmdErr = a.users(ctx, cmdArgs)
	default:
		flags.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if errors.Is(cmdErr, errUsage) {
		flags.Usage()
	}
	return cmdErr
}
