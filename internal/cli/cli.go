// Package cli implements the quill command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/quillblog/internal/client"
)

var errUsage = errors.New("usage")

// App holds the process-level dependencies of one invocation.
type App struct {
	out    io.Writer
	errOut io.Writer
	env    []string

	cfgPath string
	cfg     Config
	session *client.Session
}

// Run parses args (without the program name) and executes one command.
// It returns the process exit code.
func Run(ctx context.Context, args []string, out, errOut io.Writer, env []string) int {
	app := &App{out: out, errOut: errOut, env: env}

	globals := flag.NewFlagSet("quill", flag.ContinueOnError)
	globals.SetOutput(io.Discard)
	globals.SetInterspersed(false)
	server := globals.String("server", "", "API server base url")
	configPath := globals.String("config", "", "config file path")
	help := globals.BoolP("help", "h", false, "show help")

	if err := globals.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)
		return 1
	}
	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out)
		if len(rest) == 0 && !*help {
			return 1
		}
		return 0
	}

	app.cfgPath = *configPath
	if app.cfgPath == "" {
		app.cfgPath = ConfigPath(env)
	}
	cfg, err := LoadConfig(app.cfgPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	if *server != "" {
		if err := validateServer(*server); err != nil {
			fprintln(errOut, "error:", err)
			return 1
		}
		cfg.Server = *server
	}
	app.cfg = cfg
	app.session = client.NewSession(client.New(cfg.Server))

	err = app.dispatch(ctx, rest[0], rest[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fprintln(errOut, "error:", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		return 2
	default:
		fprintln(errOut, "error:", err)
		return 1
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "posts", "post":
		return a.runPosts(ctx, args)
	case "categories", "category":
		return a.runCategories(ctx, args)
	case "stats":
		return a.cmdStats(ctx)
	case "config":
		return a.runConfig(args)
	case "help":
		printUsage(a.out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *App) runConfig(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config requires a subcommand (show, set-server)", errUsage)
	}
	switch args[0] {
	case "show":
		fprintf(a.out, "path:      %s\nserver:    %s\npage_size: %d\n", a.cfgPath, a.cfg.Server, a.cfg.PageSize)
		return nil
	case "set-server":
		if len(args) != 2 {
			return fmt.Errorf("%w: config set-server <url>", errUsage)
		}
		if a.cfgPath == "" {
			return errors.New("cannot determine config path")
		}
		next := a.cfg
		next.Server = strings.TrimRight(args[1], "/")
		if err := SaveConfig(a.cfgPath, next); err != nil {
			return err
		}
		fprintln(a.out, "server set to", next.Server)
		return nil
	default:
		return fmt.Errorf("%w: unknown config subcommand %q", errUsage, args[0])
	}
}

func (a *App) cmdStats(ctx context.Context) error {
	stats, err := a.session.Stats(ctx)
	if err != nil {
		return err
	}
	fprintf(a.out, "total:     %d\npublished: %d\ndrafts:    %d\n", stats.Total, stats.Published, stats.Drafts)
	return nil
}

func printUsage(w io.Writer) {
	fprintln(w, "Usage: quill [--server URL] [--config PATH] <command> [args]")
	fprintln(w, "")
	fprintln(w, "Commands:")
	fprintln(w, "  posts ls [--page N] [--limit N] [--search Q] [--category SLUG] [--all]")
	fprintln(w, "  posts show <slug>")
	fprintln(w, "  posts create -t TITLE -a AUTHOR -c CONTENT [--publish] [--category ID]...")
	fprintln(w, "  posts edit <id> [-t TITLE] [-a AUTHOR] [-c CONTENT | -f FILE] [--category ID]... [--clear-categories]")
	fprintln(w, "  posts publish <id>")
	fprintln(w, "  posts unpublish <id>")
	fprintln(w, "  posts rm <id>")
	fprintln(w, "  stats")
	fprintln(w, "  categories ls [--page N] [--limit N] [--search Q]")
	fprintln(w, "  categories create -n NAME [-d DESCRIPTION]")
	fprintln(w, "  categories edit <id> [-n NAME] [-d DESCRIPTION]")
	fprintln(w, "  categories rm <id>")
	fprintln(w, "  config show")
	fprintln(w, "  config set-server <url>")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func fprintf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
