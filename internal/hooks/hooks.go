// Package hooks implements the editor lifecycle entry points. Each hook
// reads a JSON payload on stdin, updates the memory files, and exits 0;
// only malformed or missing input exits non-zero so a failing hook never
// blocks the editor.
package hooks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ninho-ai/ninho/internal/config"
	"github.com/ninho-ai/ninho/internal/dedupe"
	"github.com/ninho-ai/ninho/internal/errors"
	"github.com/ninho-ai/ninho/internal/extract"
	"github.com/ninho-ai/ninho/internal/logging"
	"github.com/ninho-ai/ninho/internal/prd"
	"github.com/ninho-ai/ninho/internal/signal"
	"github.com/ninho-ai/ninho/internal/storage"
)

// Hook event names, as passed to `ninho hook <event>`.
const (
	EventSessionStart = "session-start"
	EventUserPrompt   = "user-prompt"
	EventStop         = "stop"
	EventPreCompact   = "pre-compact"
	EventSessionEnd   = "session-end"
)

// Input is the JSON payload piped to a hook on stdin.
type Input struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	Prompt         string `json:"prompt"`
	Source         string `json:"source"`
}

// ReadInput decodes the hook payload from r.
func ReadInput(r io.Reader) (Input, error) {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return Input{}, errors.NewInvalidInput(fmt.Sprintf("parse hook input: %v", err))
	}
	return in, nil
}

// Options configures a Runner. Zero values fall back to the real
// environment (os.Stdout, ~/.ninho, time.Now).
type Options struct {
	Stdout     io.Writer
	Stderr     io.Writer
	GlobalBase string
	Now        func() time.Time
}

// Runner executes hooks for one invocation.
type Runner struct {
	in      Input
	out     io.Writer
	errOut  io.Writer
	global  *storage.Storage
	project *storage.ProjectStorage
	cfg     *config.Config
	log     *logging.Logger
	now     func() time.Time
}

// NewRunner resolves the project root from the input and prepares the
// global and project stores. The hook name tags log records.
func NewRunner(in Input, hook string, opts Options) (*Runner, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	global, err := storage.NewStorage(opts.GlobalBase)
	if err != nil {
		return nil, err
	}

	cwd := in.CWD
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	root := storage.FindProjectRoot(cwd)

	// SessionStart only reads; it must not leave .ninho droppings in
	// projects that never opted in.
	var project *storage.ProjectStorage
	if hook == EventSessionStart {
		project = storage.OpenProjectStorage(root)
	} else {
		project, err = storage.NewProjectStorage(root)
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadWithProject(global.BasePath, project.NinhoPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	return &Runner{
		in:      in,
		out:     opts.Stdout,
		errOut:  opts.Stderr,
		global:  global,
		project: project,
		cfg:     cfg,
		log:     logging.New(global.LogPath(), hook),
		now:     opts.Now,
	}, nil
}

// Run reads the payload from stdin and dispatches event. Returns the
// process exit code: 1 for unusable input or an unknown event, 0
// otherwise. Hook failures are logged, not surfaced as exit codes.
func Run(event string, stdin io.Reader, stdout, stderr io.Writer) int {
	in, err := ReadInput(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "Error: invalid JSON input")
		return 1
	}

	switch event {
	case EventStop, EventPreCompact, EventSessionEnd:
		if in.TranscriptPath == "" {
			fmt.Fprintln(stderr, "Error: no transcript_path provided")
			return 1
		}
	case EventSessionStart, EventUserPrompt:
	default:
		fmt.Fprintf(stderr, "Error: unknown hook event %q\n", event)
		return 1
	}

	r, err := NewRunner(in, event, Options{Stdout: stdout, Stderr: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
		return 0
	}

	var runErr error
	switch event {
	case EventSessionStart:
		runErr = r.SessionStart()
	case EventUserPrompt:
		runErr = r.UserPrompt()
	case EventStop:
		runErr = r.Stop()
	case EventPreCompact:
		runErr = r.PreCompact()
	case EventSessionEnd:
		runErr = r.SessionEnd()
	}
	if runErr != nil {
		r.log.Error("hook failed", runErr, map[string]any{"event": event})
	}
	return 0
}

func (r *Runner) promptIndex() *dedupe.Index {
	return dedupe.NewIndex(r.project.PromptIndexPath(), r.cfg.IndexMaxHashes)
}

// applyItems writes extracted items into the feature's PRD, creating it
// on first use, and records a session-log line per item.
func (r *Runner) applyItems(store *prd.Store, feature string, items []extract.Item, promptRef string) error {
	if len(items) == 0 {
		return nil
	}
	if !store.Exists(feature) {
		if _, err := store.Create(feature, "", ""); err != nil {
			return err
		}
	}
	for _, item := range items {
		summary := item.Summary
		if summary == "" {
			summary = clip(item.Text, 80)
		}
		var err error
		switch item.Type {
		case signal.ItemRequirement, signal.ItemBug:
			if err = store.AddRequirement(feature, summary); err == nil {
				err = store.AddSessionLog(feature, "Added requirement: "+clip(summary, 50)+"...", promptRef)
			}
		case signal.ItemDecision:
			rationale := item.Rationale
			if rationale == "" {
				rationale = "See discussion"
			}
			if err = store.AddDecision(feature, summary, rationale); err == nil {
				err = store.AddSessionLog(feature, "Decided: "+clip(summary, 50)+"...", promptRef)
			}
		case signal.ItemConstraint:
			if err = store.AddConstraint(feature, summary); err == nil {
				err = store.AddSessionLog(feature, "Added constraint: "+clip(summary, 50)+"...", promptRef)
			}
		case signal.ItemQuestion:
			if err = store.AddQuestion(feature, summary); err == nil {
				err = store.AddSessionLog(feature, "Open question: "+clip(summary, 50)+"...", promptRef)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func clip(text string, max int) string {
	if len(text) > max {
		return text[:max]
	}
	return text
}

var promptFeatureRes = []*regexp.Regexp{
	regexp.MustCompile(`working on (\w+)`),
	regexp.MustCompile(`for the (\w+) feature`),
	regexp.MustCompile(`in (\w+) module`),
	regexp.MustCompile(`(\w+) component`),
}

// featureFromPrompt pulls an explicit feature mention out of prompt
// text, defaulting to "general".
func featureFromPrompt(text string) string {
	lower := strings.ToLower(text)
	for _, re := range promptFeatureRes {
		if m := re.FindStringSubmatch(lower); m != nil {
			return m[1]
		}
	}
	return "general"
}

func featureTitle(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
