package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/listview"
	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/model"
	"github.com/idilsaglam/tada-remote/internal/proxy"
	"github.com/idilsaglam/tada-remote/internal/store/jsonstore"
	"github.com/idilsaglam/tada-remote/internal/tui"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

// Options carry what the root command resolved from flags, env and config.
type Options struct {
	Group bool // list grouped by pending/done

	Remote gateway.Remote
	Source string // base URL, recorded in exports
	UserID int
	Bind   string
	Logger *logging.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.UserID <= 0 {
		o.UserID = 1
	}
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
// No arguments starts the interactive list.
func Run(ctx context.Context, args []string, opt Options) int {
	opt.defaults()
	if len(args) == 0 {
		return doTUI(ctx, opt)
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(opt.Stdout)
		return 0
	case "tui":
		return doTUI(ctx, opt)
	case "ls":
		return doList(ctx, opt, a)
	case "show":
		return doShow(ctx, opt, a)
	case "add":
		return doAdd(ctx, opt, a)
	case "done":
		return doToggle(ctx, opt, a)
	case "edit":
		return doEdit(ctx, opt, a)
	case "rm":
		return doRemove(ctx, opt, a)
	case "export":
		return doExport(ctx, opt, a)
	case "serve":
		return doServe(ctx, opt, a)
	}

	ui.Fail(opt.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - a terminal client for a remote todo collection

Usage:
  todo [flags] [subcommand] [args]

Subcommands:
  tui                     Interactive list (default when no subcommand is given)
  ls [flags]              List one page of todos
  show <id>               Show a single todo
  add [flags] <title...>  Create a todo (title can be multiple words)
  done <id>               Toggle completion of a todo
  edit <id> <title...>    Rename a todo
  rm <id>                 Delete a todo
  export --out <file>     Write the filtered collection to a JSON file
  serve [--bind addr]     Run the /api/todos proxy

Flags:
  --config <path>         Config file (default $TADA_CONFIG or ~/.config/tada/config.toml)
  --base-url <url>        Remote collection base URL
  --log-level <level>     debug | info | warn | error
  --theme <name>          classic | neon | mono
  --no-color              Disable colors
  --group                 Group ls output by pending/done

Examples:
  todo ls --search milk --status pending
  todo add "Buy milk"
  todo done 2
  todo rm 3
  todo serve --bind :8080
`)
}

// newFlagSet returns a quiet pflag set; parse errors are reported by the caller.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags reports usage errors and returns a non-zero code when the
// command should stop.
func parseFlags(opt Options, fs *flag.FlagSet, args []string, usage string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(opt.Stdout, "usage: todo "+usage)
			fmt.Fprint(opt.Stdout, fs.FlagUsages())
			return -1
		}
		ui.Fail(opt.Stderr, fs.Name()+": "+err.Error())
		fmt.Fprintln(opt.Stderr, "usage: todo "+usage)
		return 2
	}
	return 0
}

// exit maps parseFlags' help sentinel to a successful exit.
func exit(code int) int {
	if code < 0 {
		return 0
	}
	return code
}

func parseID(opt Options, cmd, s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		ui.Fail(opt.Stderr, cmd+": not a valid id: "+s)
		return 0, false
	}
	return n, true
}

// -------------- subcommand impls ----------------

func doTUI(ctx context.Context, opt Options) int {
	err := tui.Run(ctx, opt.Remote, tui.Options{Logger: opt.Logger, UserID: opt.UserID})
	if err != nil {
		ui.Fail(opt.Stderr, err.Error())
		return 1
	}
	return 0
}

func doList(ctx context.Context, opt Options, args []string) int {
	fs := newFlagSet("ls")
	search := fs.StringP("search", "s", "", "case-insensitive title substring")
	statusName := fs.String("status", "all", "all | completed | pending")
	page := fs.IntP("page", "p", 1, "1-based page of "+strconv.Itoa(listview.PageSize))
	asJSON := fs.Bool("json", false, "print the page as JSON")
	group := fs.Bool("group", opt.Group, "group by pending/done")
	if code := parseFlags(opt, fs, args, "ls [--search s] [--status f] [--page n] [--json] [--group]"); code != 0 {
		return exit(code)
	}
	if fs.NArg() > 0 {
		ui.Fail(opt.Stderr, "ls: unexpected argument: "+fs.Arg(0))
		return 2
	}
	status, err := listview.ParseStatusFilter(*statusName)
	if err != nil {
		ui.Fail(opt.Stderr, "ls: "+err.Error())
		return 2
	}
	if *page < 1 {
		ui.Fail(opt.Stderr, "ls: page out of range")
		return 2
	}

	todos, err := opt.Remote.List(ctx)
	if err != nil {
		ui.Fail(opt.Stderr, "load: "+err.Error())
		return 1
	}
	state := listview.NewState().
		WithSearchText(*search).
		WithStatusFilter(status).
		WithPage(*page)
	view := state.Render(todos)
	if *page > max(view.TotalPages, 1) {
		ui.Fail(opt.Stderr, fmt.Sprintf("ls: page out of range: have %d, got %d", view.TotalPages, *page))
		ui.Hint(opt.Stderr, "narrow the filters or pick a lower --page")
		return 2
	}

	if *asJSON {
		return writeJSON(opt, view.Items)
	}

	d, _ := model.Stats(todos)
	var lines []string
	lines = append(lines, ui.Header(todos))
	lines = append(lines, ui.C(ui.Current().Muted, ui.ProgressBar(d, len(todos), 28)))
	lines = append(lines, "")
	if *group {
		lines = append(lines, ui.GroupLines(view.Items)...)
	} else {
		lines = append(lines, ui.TodoLines(view.Items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(ui.Current().Muted, fmt.Sprintf("page %d/%d  (%d matching, status %s)",
		*page, max(view.TotalPages, 1), view.Matched, status)))
	ui.Panel(opt.Stdout, lines)
	return 0
}

func doShow(ctx context.Context, opt Options, args []string) int {
	fs := newFlagSet("show")
	asJSON := fs.Bool("json", false, "print the todo as JSON")
	if code := parseFlags(opt, fs, args, "show <id>"); code != 0 {
		return exit(code)
	}
	if fs.NArg() != 1 {
		ui.Fail(opt.Stderr, "usage: todo show <id>")
		return 2
	}
	id, ok := parseID(opt, "show", fs.Arg(0))
	if !ok {
		return 2
	}

	t, err := opt.Remote.Get(ctx, id)
	if err != nil {
		var ferr *gateway.FetchError
		if errors.As(err, &ferr) && ferr.NotFound() {
			ui.Fail(opt.Stderr, "404 - Todo not found")
			return 1
		}
		ui.Fail(opt.Stderr, "show: "+err.Error())
		return 1
	}
	if *asJSON {
		return writeJSON(opt, t)
	}
	ui.Panel(opt.Stdout, ui.Detail(t))
	return 0
}

func doAdd(ctx context.Context, opt Options, args []string) int {
	fs := newFlagSet("add")
	done := fs.Bool("done", false, "create the todo already completed")
	user := fs.Int("user", opt.UserID, "owner reference")
	if code := parseFlags(opt, fs, args, "add [--done] [--user n] <title...>"); code != 0 {
		return exit(code)
	}
	title, err := model.NormalizeTitle(strings.Join(fs.Args(), " "))
	if err != nil {
		ui.Fail(opt.Stderr, "add: "+err.Error())
		fmt.Fprintln(opt.Stderr, "usage: todo add <title...>")
		return 2
	}

	t, _, err := opt.Remote.Create(ctx, model.Draft{Title: title, Completed: *done, UserID: *user})
	if err != nil {
		ui.Fail(opt.Stderr, "add: "+err.Error())
		return 1
	}
	ui.OK(opt.Stdout, fmt.Sprintf("added #%d %s", t.ID, ui.Sanitize(t.Title)))
	return 0
}

func doToggle(ctx context.Context, opt Options, args []string) int {
	if len(args) != 1 {
		ui.Fail(opt.Stderr, "usage: todo done <id>")
		return 2
	}
	id, ok := parseID(opt, "done", args[0])
	if !ok {
		return 2
	}

	t, err := opt.Remote.Get(ctx, id)
	if err != nil {
		ui.Fail(opt.Stderr, "done: "+err.Error())
		ui.Hint(opt.Stderr, "run `todo ls` to see valid ids")
		return 1
	}
	rev, err := opt.Remote.Update(ctx, id, model.CompletedPatch(!t.Completed))
	if err != nil {
		ui.Fail(opt.Stderr, "done: "+err.Error())
		return 1
	}
	t = t.Apply(rev.Patch)
	ui.OK(opt.Stdout, fmt.Sprintf("#%d is now %s", t.ID, strings.ToLower(t.Status())))
	return 0
}

func doEdit(ctx context.Context, opt Options, args []string) int {
	if len(args) < 2 {
		ui.Fail(opt.Stderr, "usage: todo edit <id> <title...>")
		return 2
	}
	id, ok := parseID(opt, "edit", args[0])
	if !ok {
		return 2
	}
	title, err := model.NormalizeTitle(strings.Join(args[1:], " "))
	if err != nil {
		ui.Fail(opt.Stderr, "edit: "+err.Error())
		return 2
	}

	rev, err := opt.Remote.Update(ctx, id, model.TitlePatch(title))
	if err != nil {
		ui.Fail(opt.Stderr, "edit: "+err.Error())
		return 1
	}
	got := title
	if rev.Title != nil {
		got = *rev.Title
	}
	ui.OK(opt.Stdout, fmt.Sprintf("renamed #%d to %s", id, ui.Sanitize(got)))
	return 0
}

func doRemove(ctx context.Context, opt Options, args []string) int {
	if len(args) != 1 {
		ui.Fail(opt.Stderr, "usage: todo rm <id>")
		return 2
	}
	id, ok := parseID(opt, "rm", args[0])
	if !ok {
		return 2
	}

	deleted, err := opt.Remote.Delete(ctx, id)
	switch {
	case err != nil:
		ui.Fail(opt.Stderr, "rm: "+err.Error())
		return 1
	case !deleted:
		ui.Fail(opt.Stderr, fmt.Sprintf("rm: remote refused to delete #%d", id))
		return 1
	}
	ui.OK(opt.Stdout, fmt.Sprintf("removed #%d", id))
	return 0
}

func doExport(ctx context.Context, opt Options, args []string) int {
	fs := newFlagSet("export")
	out := fs.StringP("out", "o", "", "target file or directory")
	search := fs.StringP("search", "s", "", "case-insensitive title substring")
	statusName := fs.String("status", "all", "all | completed | pending")
	if code := parseFlags(opt, fs, args, "export --out <file> [--search s] [--status f]"); code != 0 {
		return exit(code)
	}
	if strings.TrimSpace(*out) == "" {
		ui.Fail(opt.Stderr, "export: --out is required")
		return 2
	}
	status, err := listview.ParseStatusFilter(*statusName)
	if err != nil {
		ui.Fail(opt.Stderr, "export: "+err.Error())
		return 2
	}

	todos, err := opt.Remote.List(ctx)
	if err != nil {
		ui.Fail(opt.Stderr, "load: "+err.Error())
		return 1
	}
	filtered := listview.Filter(todos, *search, status)
	path, err := jsonstore.Save(*out, jsonstore.Snapshot{
		Source: opt.Source,
		Search: *search,
		Status: status.String(),
		Todos:  filtered,
	})
	if err != nil {
		ui.Fail(opt.Stderr, "export: "+err.Error())
		return 1
	}
	opt.Logger.Info("exported snapshot", "path", path, "count", len(filtered))
	ui.OK(opt.Stdout, fmt.Sprintf("exported %d todos to %s", len(filtered), path))
	return 0
}

func doServe(ctx context.Context, opt Options, args []string) int {
	fs := newFlagSet("serve")
	bind := fs.String("bind", opt.Bind, "listen address")
	if code := parseFlags(opt, fs, args, "serve [--bind addr]"); code != 0 {
		return exit(code)
	}
	if strings.TrimSpace(*bind) == "" {
		ui.Fail(opt.Stderr, "serve: --bind is required")
		return 2
	}
	if err := proxy.Run(ctx, *bind, opt.Remote, opt.Logger); err != nil {
		ui.Fail(opt.Stderr, "serve: "+err.Error())
		return 1
	}
	return 0
}

// -------------- rendering helpers --------------

func writeJSON(opt Options, v any) int {
	enc := json.NewEncoder(opt.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		ui.Fail(opt.Stderr, "encode: "+err.Error())
		return 1
	}
	return 0
}
