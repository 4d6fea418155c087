package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ldi/daybook/internal/auth"
	"github.com/ldi/daybook/internal/avatar"
	"github.com/ldi/daybook/internal/calendar"
	"github.com/ldi/daybook/internal/config"
	"github.com/ldi/daybook/internal/db"
	"github.com/ldi/daybook/internal/logging"
	"github.com/ldi/daybook/internal/mcp"
	"github.com/ldi/daybook/internal/reminders"
	"github.com/ldi/daybook/internal/server"
	"github.com/ldi/daybook/internal/stats"
	"github.com/ldi/daybook/internal/tasks"
	"github.com/ldi/daybook/internal/ui"
	"github.com/ldi/daybook/internal/ui/components"
	"github.com/ldi/daybook/internal/views"
	"github.com/ldi/daybook/pkg/models"
)

// Interactive and long-running entry points, swapped out in tests.
var (
	runMenu  = ui.RunMenu
	runBoard = ui.RunBoard
	serveWeb = func(ctx context.Context, srv *server.Server, addr string) error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(addr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
	serveMCP = func(a *app) error {
		return mcp.Serve(mcp.NewServer(a.store, a.reminders, a.users))
	}
)

func main() {
	if err := execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	verbose    bool
	stdout     io.Writer
	stderr     io.Writer
}

func execute(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("daybook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := globalOptions{stdout: stdout, stderr: stderr}
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to config file")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}

	var command string
	var rest []string
	if fs.NArg() == 0 {
		selected, err := runMenu()
		if err != nil {
			return fmt.Errorf("failed to run menu: %w", err)
		}
		if selected == "" {
			return nil
		}
		command = selected
	} else {
		command = fs.Arg(0)
		rest = fs.Args()[1:]
	}

	switch command {
	case "init":
		return runInit(opts, rest)
	case "web":
		return runWeb(opts, rest)
	case "mcp":
		return runMCP(opts, rest)
	case "board":
		return runBoardCommand(opts, rest)
	case "add":
		return runAdd(opts, rest)
	case "list":
		return runList(opts, rest)
	case "toggle":
		return runToggle(opts, rest)
	case "delete":
		return runDelete(opts, rest)
	case "stats":
		return runStats(opts, rest)
	case "remind":
		return runRemind(opts, rest)
	case "reminders":
		return runReminders(opts, rest)
	case "export":
		return runExport(opts, rest)
	case "import":
		return runImport(opts, rest)
	case "help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: daybook [-config path] [-verbose] <command> [arguments]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  init [dir]                 Create config, database and import an existing snapshot")
	fmt.Fprintln(w, "  board                      Browse and edit tasks in the terminal")
	fmt.Fprintln(w, "  add [flags] <title>        Create a task")
	fmt.Fprintln(w, "  list [-view v] [-q text]   Print a view")
	fmt.Fprintln(w, "  toggle <id>                Complete or reopen a task")
	fmt.Fprintln(w, "  delete <id>                Delete a task")
	fmt.Fprintln(w, "  stats                      Show progress")
	fmt.Fprintln(w, "  remind <id> [flags]        Schedule a reminder for a task")
	fmt.Fprintln(w, "  reminders                  List scheduled reminders")
	fmt.Fprintln(w, "  export [path]              Write tasks as JSON Lines")
	fmt.Fprintln(w, "  import <path>              Replace tasks from a JSON Lines file")
	fmt.Fprintln(w, "  web [-port n]              Serve the web app")
	fmt.Fprintln(w, "  mcp                        Serve MCP tools on stdio")
}

// app holds the services a command needs, wired from one config file.
type app struct {
	cfg       config.Config
	logger    *log.Logger
	db        *db.DB
	store     *tasks.Store
	reminders *reminders.Service
	users     *auth.StaticProvider
	avatars   *avatar.DirStore
}

func openApp(ctx context.Context, opts globalOptions) (*app, error) {
	cfg, err := config.LoadOrCreate(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	logger := logging.New(opts.stderr, logging.Options{Level: level, Format: cfg.LogFormat})

	database, err := db.Open(cfg.Resolve(cfg.DBPath))
	if err != nil {
		return nil, err
	}
	if err := database.Init(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	database.EnableAutoSnapshot(cfg.Resolve(cfg.SnapshotPath))

	store := tasks.NewStore(database, tasks.WithLogger(logger))
	if err := store.Load(ctx); err != nil {
		database.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        database,
		store:     store,
		reminders: reminders.NewService(reminders.NewLocalScheduler(database, logger), logger),
		users:     auth.NewStaticProvider(cfg.User),
		avatars:   avatar.NewDirStore(cfg.Resolve(cfg.AvatarDir)),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// resolveID accepts a full task id or an unambiguous prefix of one.
func (a *app) resolveID(prefix string) (string, error) {
	var match string
	for _, t := range a.store.All() {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("task %s not found", prefix)
	}
	return match, nil
}

func runInit(opts globalOptions, args []string) error {
	configPath := opts.configPath
	if len(args) > 0 {
		configPath = filepath.Join(args[0], config.DefaultDir, config.DefaultConfigFileName)
	}
	dir := filepath.Dir(configPath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}
	fmt.Fprintf(opts.stdout, "✓ Created %s/ directory\n", dir)

	gitignore := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(gitignore, []byte(config.DefaultDBName+"*\n"), 0o644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	fmt.Fprintf(opts.stdout, "✓ Created %s\n", gitignore)

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(opts.stdout, "✓ Wrote config to %s\n", configPath)

	dbPath := cfg.Resolve(cfg.DBPath)
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Fprintf(opts.stdout, "✓ Initialized database at %s\n", dbPath)

	snapshotPath := cfg.Resolve(cfg.SnapshotPath)
	if _, err := os.Stat(snapshotPath); err == nil {
		n, err := database.ImportSnapshot(ctx, snapshotPath)
		if err != nil {
			return fmt.Errorf("failed to import snapshot: %w", err)
		}
		fmt.Fprintf(opts.stdout, "✓ Imported %d tasks from %s\n", n, snapshotPath)
	}

	fmt.Fprintln(opts.stdout, "✓ Daybook initialized successfully")
	return nil
}

func runWeb(opts globalOptions, args []string) error {
	webFlags := flag.NewFlagSet("web", flag.ContinueOnError)
	webFlags.SetOutput(opts.stderr)
	port := webFlags.Int("port", 0, "Port to listen on (defaults to web_port from config)")
	if err := webFlags.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if *port == 0 {
		*port = a.cfg.WebPort
	}

	srv := server.NewServer(server.Deps{
		Store:     a.store,
		Reminders: a.reminders,
		Auth:      a.users,
		Avatars:   a.avatars,
		Logger:    a.logger,
	})
	fmt.Fprintf(opts.stdout, "Daybook is running at http://localhost:%d\n", *port)
	return serveWeb(ctx, srv, fmt.Sprintf(":%d", *port))
}

func runMCP(opts globalOptions, args []string) error {
	a, err := openApp(context.Background(), opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return serveMCP(a)
}

func runBoardCommand(opts globalOptions, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return runBoard(ctx, a.store)
}

func runAdd(opts globalOptions, args []string) error {
	addFlags := flag.NewFlagSet("add", flag.ContinueOnError)
	addFlags.SetOutput(opts.stderr)
	due := addFlags.String("due", "", "Due date (YYYY-MM-DD, or \"today\")")
	priority := addFlags.String("priority", "", "Priority (low, medium, high)")
	category := addFlags.String("category", "", "Category")
	description := addFlags.String("description", "", "Description")
	if err := addFlags.Parse(args); err != nil {
		return err
	}
	title := strings.Join(addFlags.Args(), " ")

	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	dueDate := *due
	if dueDate == "today" {
		dueDate = a.store.Now().Format(time.DateOnly)
	}

	task, err := a.store.Create(ctx, models.TaskInput{
		Title:       title,
		Description: *description,
		DueDate:     dueDate,
		Priority:    models.Priority(*priority),
		Category:    models.Category(*category),
	})
	if task.ID != "" {
		fmt.Fprintf(opts.stdout, "✓ Created task %s: %s\n", shortID(task.ID), task.Title)
	}
	return err
}

func runList(opts globalOptions, args []string) error {
	listFlags := flag.NewFlagSet("list", flag.ContinueOnError)
	listFlags.SetOutput(opts.stderr)
	viewName := listFlags.String("view", "today", "View (today, inbox, upcoming, completed or a category)")
	query := listFlags.String("q", "", "Only tasks whose title or description contains this text")
	plain := listFlags.Bool("plain", false, "Print a plain table with task ids")
	if err := listFlags.Parse(args); err != nil {
		return err
	}

	v, err := views.ParseView(*viewName)
	if err != nil {
		return err
	}

	a, err := openApp(context.Background(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	now := a.store.Now()
	list := views.Filter(a.store.All(), v, now, *query)

	if *plain {
		fmt.Fprintf(opts.stdout, "%-10s %-30s %-8s %-10s %-10s\n", "ID", "TITLE", "PRIORITY", "CATEGORY", "DUE")
		fmt.Fprintln(opts.stdout, strings.Repeat("-", 72))
		for _, t := range list {
			fmt.Fprintf(opts.stdout, "%-10s %-30s %-8s %-10s %-10s\n", shortID(t.ID), t.Title, t.Priority, t.Category, t.DueDate)
		}
		return nil
	}

	fmt.Fprintln(opts.stdout, components.NewTaskList(v, list, now, 0).View())
	return nil
}

func runToggle(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: daybook toggle <id>")
	}
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}
	task, err := a.store.ToggleComplete(ctx, id)
	if task.ID != "" {
		state := "reopened"
		if task.Completed {
			state = "completed"
		}
		fmt.Fprintf(opts.stdout, "✓ %s %s\n", strings.ToUpper(state[:1])+state[1:], task.Title)
	}
	return err
}

func runDelete(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: daybook delete <id>")
	}
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(opts.stdout, "✓ Deleted task %s\n", shortID(id))
	return nil
}

func runStats(opts globalOptions, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.users.CurrentUser(ctx)
	if err != nil {
		return err
	}
	now := a.store.Now()
	card := &components.StatsCard{
		Greeting: stats.Greeting(now.Hour()),
		Name:     user.Name,
		Summary:  stats.Summarize(a.store.All(), now),
	}
	fmt.Fprintln(opts.stdout, card.View())
	return nil
}

func runRemind(opts globalOptions, args []string) error {
	remindFlags := flag.NewFlagSet("remind", flag.ContinueOnError)
	remindFlags.SetOutput(opts.stderr)
	date := remindFlags.String("date", "", "Reminder date (YYYY-MM-DD), defaults to the task's due date")
	clock := remindFlags.String("time", "09:00", "Reminder time (HH:MM)")
	message := remindFlags.String("message", "", "Message, defaults to the task title")
	// Accept the id ahead of the flags as well as after them.
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		args = append(append([]string{}, args[1:]...), args[0])
	}
	if err := remindFlags.Parse(args); err != nil {
		return err
	}
	if remindFlags.NArg() != 1 {
		return errors.New("usage: daybook remind <id> [-date d] [-time t] [-message m]")
	}

	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(remindFlags.Arg(0))
	if err != nil {
		return err
	}
	task, err := a.store.Get(id)
	if err != nil {
		return err
	}
	user, err := a.users.CurrentUser(ctx)
	if err != nil {
		return err
	}

	day := *date
	if day == "" {
		day, _ = calendar.DateKey(task.DueDate, a.store.Now().Location())
	}
	r, err := a.reminders.Set(ctx, task, day, *clock, *message, user.Email)
	if err != nil {
		return err
	}
	fmt.Fprintf(opts.stdout, "✓ Reminder %s scheduled for %s\n", shortID(r.ID), r.ReminderDateTime)
	return nil
}

func runReminders(opts globalOptions, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.reminders.List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.stdout, "%-10s %-10s %-18s %-10s %s\n", "ID", "TASK", "AT", "STATUS", "MESSAGE")
	fmt.Fprintln(opts.stdout, strings.Repeat("-", 72))
	for _, r := range list {
		fmt.Fprintf(opts.stdout, "%-10s %-10s %-18s %-10s %s\n", shortID(r.ID), shortID(r.TaskID), r.ReminderDateTime, r.Status, r.Message)
	}
	return nil
}

func runExport(opts globalOptions, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	path := a.cfg.Resolve(a.cfg.SnapshotPath)
	if len(args) > 0 {
		path = args[0]
	}
	if err := a.db.ExportSnapshot(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(opts.stdout, "✓ Exported %d tasks to %s\n", len(a.store.All()), path)
	return nil
}

func runImport(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: daybook import <path>")
	}
	ctx := context.Background()
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.db.ImportSnapshot(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to import snapshot: %w", err)
	}
	fmt.Fprintf(opts.stdout, "✓ Imported %d tasks from %s\n", n, args[0])
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
