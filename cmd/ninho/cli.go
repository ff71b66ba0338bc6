package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/db"
	"github.com/ninho-ai/ninho/internal/errors"
	"github.com/ninho-ai/ninho/internal/hooks"
	"github.com/ninho-ai/ninho/internal/period"
	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/storage"
	"github.com/ninho-ai/ninho/internal/summary"
	"github.com/ninho-ai/ninho/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "ninho",
		Usage:   "Personal memory for coding sessions",
		Version: Version,
		Commands: []*cli.Command{
			hookCmd(),
			initCmd(),
			statusCmd(),
			prdsCmd(),
			searchCmd(),
			digestCmd(),
			summaryCmd(),
			indexCmd(),
			doctorCmd(),
			serveCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// env is the resolved project and global context for a CLI command.
type env struct {
	project *storage.ProjectStorage
	global  *storage.Storage
	cfg     *config.Config
}

// openEnv resolves storage from the current directory. When
// requireProject is set, a missing .ninho directory is an error.
func openEnv(requireProject bool) (*env, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	project := storage.OpenProjectStorage(storage.FindProjectRoot(cwd))
	if requireProject && !project.Exists() {
		return nil, fmt.Errorf("no .ninho directory found under %s (run 'ninho init' first)", project.ProjectPath)
	}

	global, err := storage.NewStorage("")
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadWithProject(global.BasePath, project.NinhoPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return &env{project: project, global: global, cfg: cfg}, nil
}

// hookCmd dispatches an editor lifecycle hook. The hook payload is read
// from stdin; the exit code tells the editor whether the input was usable.
func hookCmd() *cli.Command {
	return &cli.Command{
		Name:      "hook",
		Usage:     "Run a lifecycle hook (reads JSON from stdin)",
		ArgsUsage: "<session-start|user-prompt|stop|pre-compact|session-end>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("hook event is required", 1)
			}
			code := hooks.Run(c.Args().First(), os.Stdin, os.Stdout, os.Stderr)
			if code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}

// initCmd creates the .ninho directory structure for a project.
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize Ninho for the current project",
		Action: func(c *cli.Context) error {
			cwd, err := os.Getwd()
			if err != nil {
				return outputError(err)
			}
			root := storage.FindProjectRoot(cwd)
			if _, err := storage.NewProjectStorage(root); err != nil {
				return outputError(err)
			}
			fmt.Printf("Initialized .ninho in %s\n", root)
			return nil
		},
	}
}

// statusCmd prints an overview of the project's memory.
func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the state of this project's memory",
		Action: func(c *cli.Context) error {
			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			store := prd.NewStore(env.project)
			names := store.List()

			fmt.Printf("Project: %s\n", env.project.ProjectPath)
			fmt.Printf("PRDs: %d\n", len(names))
			for _, name := range names {
				sum, ok := store.GetSummary(name)
				if !ok {
					continue
				}
				fmt.Printf("  %-24s %d open, %d done, %d questions, %d decisions\n",
					name, sum.OpenRequirements, sum.CompletedRequirements,
					sum.OpenQuestions, sum.TotalDecisions)
			}
			fmt.Printf("Prompt logs: %d days\n", len(env.project.ListPromptDates()))
			fmt.Printf("Summaries: %d weekly, %d monthly, %d yearly\n",
				len(env.project.ListSummaries("weekly")),
				len(env.project.ListSummaries("monthly")),
				len(env.project.ListSummaries("yearly")))
			fmt.Printf("Learnings: %d days\n", len(env.global.ListDailyDates()))
			return nil
		},
	}
}

// prdsCmd lists PRDs with their open work.
func prdsCmd() *cli.Command {
	return &cli.Command{
		Name:  "prds",
		Usage: "List PRDs",
		Action: func(c *cli.Context) error {
			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			store := prd.NewStore(env.project)
			names := store.List()
			if len(names) == 0 {
				fmt.Println("No PRDs yet.")
				return nil
			}
			for _, name := range names {
				sum, ok := store.GetSummary(name)
				if !ok {
					continue
				}
				line := fmt.Sprintf("%s: %d open requirement(s)", name, sum.OpenRequirements)
				if sum.LatestDecision != nil {
					line += fmt.Sprintf(" | latest decision %s (%s)",
						sum.LatestDecision.Text, sum.LatestDecision.Date)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

// searchCmd searches the sqlite index, rebuilding it first so results
// reflect the markdown files on disk.
func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search PRDs, prompt history, summaries, and learnings",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum matches to return"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidInput("search query is required"))
			}
			query := strings.Join(c.Args().Slice(), " ")

			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			database, err := db.Open(env.project.IndexDBPath())
			if err != nil {
				return outputError(err)
			}
			defer database.Close()
			if _, err := db.Rebuild(database, env.project, env.global); err != nil {
				return outputError(err)
			}

			matches, err := db.Search(database, query, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			if len(matches) == 0 {
				fmt.Printf("No matches for %q.\n", query)
				return nil
			}
			for _, m := range matches {
				fmt.Printf("%-8s %s:%d  %s\n", m.Kind, m.Ref, m.Line, m.Text)
			}
			return nil
		},
	}
}

var digestEntryRe = regexp.MustCompile(`(?s)## \[([^\]]+)\] (\d{2}:\d{2}:\d{2})\n\n> (.+?)\n\n---\n\n`)
var digestLearningRe = regexp.MustCompile(`(?s)## \[(\w+)\] \d{2}:\d{2}:\d{2}\n\n> (.+?)(\n\n\*\*Signal|\n\n## |\z)`)

// digestCmd prints recent prompts and learnings day by day.
func digestCmd() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Show recent activity",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 7, Usage: "How many days back to include"},
		},
		Action: func(c *cli.Context) error {
			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			printed := false
			for i := 0; i < c.Int("days"); i++ {
				date := time.Now().AddDate(0, 0, -i)
				dateStr := date.Format("2006-01-02")

				var lines []string
				if content, ok := storage.ReadFile(env.project.PromptFile(date)); ok {
					for _, m := range digestEntryRe.FindAllStringSubmatch(content, -1) {
						lines = append(lines, fmt.Sprintf("  %s [%s] %s", m[2], m[1], clipLine(m[3], 70)))
					}
				}
				if content, ok := storage.ReadFile(env.global.DailyFile(date)); ok {
					for _, m := range digestLearningRe.FindAllStringSubmatch(content, -1) {
						lines = append(lines, fmt.Sprintf("  learned [%s] %s", m[1], clipLine(m[2], 70)))
					}
				}
				if len(lines) == 0 {
					continue
				}
				printed = true
				fmt.Println(dateStr)
				for _, line := range lines {
					fmt.Println(line)
				}
			}
			if !printed {
				fmt.Println("No activity in this window.")
			}
			return nil
		},
	}
}

// summaryCmd generates a rollup summary. Without arguments it generates
// last week's summary.
func summaryCmd() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Generate a weekly, monthly, or yearly summary",
		ArgsUsage: "[weekly|monthly|yearly] [period]",
		Action: func(c *cli.Context) error {
			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			typ := period.Weekly
			if c.NArg() > 0 {
				switch c.Args().Get(0) {
				case "weekly":
					typ = period.Weekly
				case "monthly":
					typ = period.Monthly
				case "yearly":
					typ = period.Yearly
				default:
					return outputError(errors.NewInvalidInput("period type must be weekly, monthly, or yearly"))
				}
			}

			key := c.Args().Get(1)
			if key == "" {
				now := time.Now()
				switch typ {
				case period.Monthly:
					key = period.PreviousMonth(now)
				case period.Yearly:
					key = period.PreviousYear(now)
				default:
					key = period.PreviousWeek(now)
				}
			}

			mgr := summary.NewManager(env.project, env.global)
			if _, err := mgr.Generate(typ, key); err != nil {
				return outputError(err)
			}
			fmt.Printf("Generated %s summary for %s\n", typ, key)
			fmt.Printf("  %s\n", env.project.SummaryFile(string(typ), key))
			return nil
		},
	}
}

// indexCmd rebuilds the sqlite search index.
func indexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Rebuild the search index from the markdown files",
		Action: func(c *cli.Context) error {
			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			database, err := db.Open(env.project.IndexDBPath())
			if err != nil {
				return outputError(err)
			}
			defer database.Close()

			count, err := db.Rebuild(database, env.project, env.global)
			if err != nil {
				return outputError(err)
			}
			fmt.Printf("Indexed %d documents\n", count)
			return nil
		},
	}
}

// doctorCmd checks the installation.
func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check that Ninho is set up correctly",
		Action: func(c *cli.Context) error {
			failed := false
			check := func(name string, err error) {
				if err != nil {
					failed = true
					fmt.Printf("FAIL %s: %v\n", name, err)
					return
				}
				fmt.Printf("ok   %s\n", name)
			}

			cwd, err := os.Getwd()
			check("working directory", err)
			root := storage.FindProjectRoot(cwd)

			global, err := storage.NewStorage("")
			check("global storage (~/.ninho)", err)

			project := storage.OpenProjectStorage(root)
			if project.Exists() {
				fmt.Printf("ok   project storage (%s)\n", project.NinhoPath)

				database, err := db.Open(project.IndexDBPath())
				check("search index", err)
				if err == nil {
					_, err = db.Rebuild(database, project, global)
					check("index rebuild", err)
					database.Close()
				}
			} else {
				fmt.Printf("warn project storage: no .ninho under %s (run 'ninho init')\n", root)
			}

			if global != nil {
				_, err = config.LoadWithProject(global.BasePath, project.NinhoPath)
				check("config", err)
			}

			if failed {
				return cli.Exit("doctor found problems", 1)
			}
			return nil
		},
	}
}

// serveCmd starts the web UI.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI for browsing memory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8737, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			env, err := openEnv(true)
			if err != nil {
				return outputError(err)
			}

			database, err := db.Open(env.project.IndexDBPath())
			if err != nil {
				return outputError(err)
			}
			defer database.Close()
			if _, err := db.Rebuild(database, env.project, env.global); err != nil {
				return outputError(err)
			}

			srv := web.NewServer(database, env.project, env.global, env.cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputError formats error for CLI.
func outputError(err error) error {
	if nErr, ok := err.(*errors.NinhoError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", nErr.Code, nErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// clipLine truncates text to max characters on one line.
func clipLine(text string, max int) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
