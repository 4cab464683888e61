// Package dispatch parses slash commands and routes them to their handlers.
//
// The dispatcher owns the closed command set and its help text. It talks to
// the rest of the system through small consumer interfaces so handlers stay
// testable without a live backend. Dialogue lifecycle commands (/socratic,
// /stop) are not executed here; the dispatcher reports them as actions for
// the owning session to apply against its dialogue engine.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// DefaultTimeout bounds every backend call made on behalf of a command.
const DefaultTimeout = 15 * time.Second

// Action tells the session what dialogue transition, if any, a command asks
// for. The dispatcher never touches dialogue state itself.
type Action int

const (
	ActionNone Action = iota
	ActionStartQuestioning
	ActionStopQuestioning
)

// Result is the outcome of dispatching one command.
type Result struct {
	// Messages are assistant-role responses to append to the transcript.
	Messages []string
	// Action is the dialogue transition the session should perform.
	Action Action
	// Command is the recognized command type, or "" for unhandled input.
	Command models.CommandType
	// Handled is false when the input named no known command; the caller
	// should then treat the line as plain text.
	Handled bool
}

// QueryExecutor forwards a natural-language query to the analysis backend.
type QueryExecutor interface {
	RunQuery(ctx context.Context, query string) (string, error)
}

// BenchmarkService lists and runs backend benchmark suites.
type BenchmarkService interface {
	ListBenchmarks(ctx context.Context) ([]string, error)
	RunBenchmark(ctx context.Context, name string) (string, error)
}

// SummaryService generates a natural-language summary of the current analysis.
type SummaryService interface {
	GenerateSummary(ctx context.Context) (string, error)
}

// SnapshotProvider exposes the latest analysis snapshot, nil when no
// analysis has run yet.
type SnapshotProvider interface {
	Snapshot() *models.AnalysisSnapshot
}

// PanelLauncher opens dashboard surfaces that live outside the conversation,
// such as the file-analysis dialog and the history browser.
type PanelLauncher interface {
	OpenAnalysis(ctx context.Context) error
	OpenHistory(ctx context.Context) error
}

// Opts carries the dispatcher's collaborators. Timeout defaults to
// DefaultTimeout when zero.
type Opts struct {
	Queries    QueryExecutor
	Benchmarks BenchmarkService
	Summaries  SummaryService
	Snapshots  SnapshotProvider
	Panels     PanelLauncher
	Timeout    time.Duration
}

// Dispatcher routes parsed slash commands to their handlers.
type Dispatcher struct {
	queries    QueryExecutor
	benchmarks BenchmarkService
	summaries  SummaryService
	snapshots  SnapshotProvider
	panels     PanelLauncher
	timeout    time.Duration
}

// New creates a dispatcher from its collaborators.
func New(opts Opts) *Dispatcher {
	t := opts.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	return &Dispatcher{
		queries:    opts.Queries,
		benchmarks: opts.Benchmarks,
		summaries:  opts.Summaries,
		snapshots:  opts.Snapshots,
		panels:     opts.Panels,
		timeout:    t,
	}
}

// verbs maps the typed command token to its command type.
var verbs = map[string]models.CommandType{
	"analyze":   models.CommandOpenAnalysis,
	"socratic":  models.CommandStartQuestioning,
	"query":     models.CommandRunQuery,
	"snapshot":  models.CommandShowSnapshot,
	"history":   models.CommandOpenHistory,
	"help":      models.CommandShowHelp,
	"benchmark": models.CommandRunBenchmark,
	"summary":   models.CommandGenerateSummary,
	"stop":      models.CommandStopDialogue,
}

// descriptors is the canonical, ordered command table used by /help and the
// commands API endpoint.
var descriptors = []models.CommandDescriptor{
	{Command: "/analyze", Description: "Open the file analysis dialog to upload a new dataset.", Usage: "/analyze", Example: "/analyze"},
	{Command: "/socratic", Description: "Start a guided questioning flow matched to your current analysis.", Usage: "/socratic", Example: "/socratic"},
	{Command: "/query", Description: "Run a natural-language query against the analysis backend.", Usage: "/query <question>", Example: "/query what drives churn in the treatment group?"},
	{Command: "/snapshot", Description: "Show a summary of the latest analysis result.", Usage: "/snapshot", Example: "/snapshot"},
	{Command: "/history", Description: "Open the browser of past analyses.", Usage: "/history", Example: "/history"},
	{Command: "/help", Description: "List commands, or explain a concept topic.", Usage: "/help [topic]", Example: "/help entropy"},
	{Command: "/benchmark", Description: "List available benchmarks, or run one by name.", Usage: "/benchmark [name]", Example: "/benchmark classification"},
	{Command: "/summary", Description: "Generate a natural-language summary of the current analysis.", Usage: "/summary", Example: "/summary"},
	{Command: "/stop", Description: "Stop the active questioning flow.", Usage: "/stop", Example: "/stop"},
}

// helpTopics are the concept explanations reachable via "/help <topic>".
var helpTopics = map[string]string{
	"causal": "Causal analysis estimates the effect of a treatment on an outcome while adjusting for confounders. " +
		"The causal graph panel shows the assumed structure; the refuter panel shows how the estimate held up under perturbation.",
	"bayesian": "Bayesian analysis combines a prior belief with observed data into a posterior distribution. " +
		"The credible interval on the posterior tells you the range the parameter plausibly lies in given both.",
	"entropy": "Entropy measures how spread out the classification probabilities are. High entropy means the model " +
		"could not commit to a single domain, which usually calls for more evidence rather than more modeling.",
	"confidence": "Confidence is the probability mass the classifier placed on its top domain. It is a measure of the " +
		"model's certainty, not of correctness: a confidently wrong model is still wrong.",
	"socratic": "The questioning flows walk you through structured prompts about your analysis setup. They do not " +
		"change any results; they surface assumptions you may want to check before acting.",
}

// Parse splits raw input into a command type and its argument string. ok is
// false when the input is not a recognized slash command; for inputs that
// start with "/" but name no known command, cmd is "" and ok is false.
func Parse(input string) (cmd models.CommandType, args string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", false
	}
	verb := trimmed[1:]
	if i := strings.IndexAny(verb, " \t"); i >= 0 {
		args = strings.TrimSpace(verb[i+1:])
		verb = verb[:i]
	}
	ct, known := verbs[strings.ToLower(verb)]
	if !known {
		return "", "", false
	}
	return ct, args, true
}

// Descriptors returns a copy of the ordered command table.
func Descriptors() []models.CommandDescriptor {
	out := make([]models.CommandDescriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Dispatch executes the command named by the input. Input that names no
// known command yields Handled=false so the caller can treat the line as
// plain text; errors are reserved for handler failures.
func (d *Dispatcher) Dispatch(ctx context.Context, input string) (Result, error) {
	cmd, args, ok := Parse(input)
	if !ok {
		slog.Debug("Dispatcher.Dispatch: no known command, leaving to caller", "input", strings.TrimSpace(input))
		return Result{}, nil
	}
	slog.Debug("Dispatcher.Dispatch: dispatching", "command", cmd, "hasArgs", args != "")

	res, err := d.exec(ctx, cmd, args)
	res.Handled = true
	return res, err
}

func (d *Dispatcher) exec(ctx context.Context, cmd models.CommandType, args string) (Result, error) {
	switch cmd {
	case models.CommandStartQuestioning:
		return Result{Command: cmd, Action: ActionStartQuestioning}, nil
	case models.CommandStopDialogue:
		return Result{Command: cmd, Action: ActionStopQuestioning}, nil
	case models.CommandShowHelp:
		return Result{Command: cmd, Messages: []string{d.helpText(args)}}, nil
	case models.CommandShowSnapshot:
		return Result{Command: cmd, Messages: []string{d.snapshotText()}}, nil
	case models.CommandRunQuery:
		return d.runQuery(ctx, cmd, args)
	case models.CommandRunBenchmark:
		return d.runBenchmark(ctx, cmd, args)
	case models.CommandGenerateSummary:
		return d.generateSummary(ctx, cmd)
	case models.CommandOpenAnalysis:
		if d.panels == nil {
			return Result{Command: cmd, Messages: []string{unavailableText("file analysis dialog")}}, nil
		}
		return d.openPanel(ctx, cmd, "file analysis dialog", d.panels.OpenAnalysis)
	case models.CommandOpenHistory:
		if d.panels == nil {
			return Result{Command: cmd, Messages: []string{unavailableText("analysis history browser")}}, nil
		}
		return d.openPanel(ctx, cmd, "analysis history browser", d.panels.OpenHistory)
	default:
		// Unreachable while verbs and this switch stay in sync.
		return Result{Command: cmd}, nil
	}
}

func (d *Dispatcher) runQuery(ctx context.Context, cmd models.CommandType, args string) (Result, error) {
	if d.queries == nil {
		return Result{Command: cmd, Messages: []string{unavailableText("analysis query backend")}}, nil
	}
	if args == "" {
		return Result{Command: cmd, Messages: []string{
			"Usage: /query <question>\nExample: /query what drives churn in the treatment group?",
		}}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	answer, err := d.queries.RunQuery(cctx, args)
	if err != nil {
		slog.Error("Dispatcher.runQuery: backend query failed", "error", err)
		return Result{Command: cmd, Messages: []string{
			"The query could not be completed: " + err.Error(),
		}}, nil
	}
	return Result{Command: cmd, Messages: []string{answer}}, nil
}

func (d *Dispatcher) runBenchmark(ctx context.Context, cmd models.CommandType, args string) (Result, error) {
	if d.benchmarks == nil {
		return Result{Command: cmd, Messages: []string{unavailableText("benchmark service")}}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if args == "" {
		names, err := d.benchmarks.ListBenchmarks(cctx)
		if err != nil {
			slog.Error("Dispatcher.runBenchmark: listing benchmarks failed", "error", err)
			return Result{Command: cmd, Messages: []string{"Benchmarks are unavailable right now: " + err.Error()}}, nil
		}
		if len(names) == 0 {
			return Result{Command: cmd, Messages: []string{"No benchmarks are registered on the backend."}}, nil
		}
		var b strings.Builder
		b.WriteString("Available benchmarks (run one with /benchmark <name>):\n")
		for _, n := range names {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		return Result{Command: cmd, Messages: []string{b.String()}}, nil
	}

	report, err := d.benchmarks.RunBenchmark(cctx, args)
	if err != nil {
		slog.Error("Dispatcher.runBenchmark: run failed", "benchmark", args, "error", err)
		return Result{Command: cmd, Messages: []string{fmt.Sprintf("Benchmark %s failed: %v", args, err)}}, nil
	}
	return Result{Command: cmd, Messages: []string{report}}, nil
}

func (d *Dispatcher) generateSummary(ctx context.Context, cmd models.CommandType) (Result, error) {
	if d.summaries == nil {
		return Result{Command: cmd, Messages: []string{unavailableText("summary service")}}, nil
	}
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	text, err := d.summaries.GenerateSummary(cctx)
	if err != nil {
		slog.Error("Dispatcher.generateSummary: backend call failed", "error", err)
		return Result{Command: cmd, Messages: []string{"The summary could not be generated: " + err.Error()}}, nil
	}
	return Result{Command: cmd, Messages: []string{text}}, nil
}

func (d *Dispatcher) openPanel(ctx context.Context, cmd models.CommandType, label string, open func(context.Context) error) (Result, error) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := open(cctx); err != nil {
		slog.Error("Dispatcher.openPanel: launch failed", "panel", label, "error", err)
		return Result{Command: cmd, Messages: []string{fmt.Sprintf("Could not open the %s: %v", label, err)}}, nil
	}
	return Result{Command: cmd, Messages: []string{fmt.Sprintf("Opening the %s.", label)}}, nil
}

// helpText renders either the full command table or one topic explanation.
// An unknown topic lists the valid topics instead of failing.
func (d *Dispatcher) helpText(topic string) string {
	if topic == "" {
		var b strings.Builder
		b.WriteString("Available commands:\n")
		for _, desc := range descriptors {
			fmt.Fprintf(&b, "%-12s %s\n", desc.Command, desc.Description)
		}
		b.WriteString("\nConcept topics: ")
		b.WriteString(strings.Join(topicNames(), ", "))
		return b.String()
	}

	key := strings.ToLower(strings.TrimSpace(topic))
	if text, ok := helpTopics[key]; ok {
		return text
	}
	return fmt.Sprintf("No help topic %q. Valid topics: %s.", topic, strings.Join(topicNames(), ", "))
}

// snapshotText renders the current analysis snapshot, or a nudge to run an
// analysis when none exists.
func (d *Dispatcher) snapshotText() string {
	if d.snapshots == nil {
		return unavailableText("analysis context")
	}
	snap := d.snapshots.Snapshot()
	if snap == nil {
		return "No analysis has been run yet. Use /analyze to upload a dataset first."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Domain: %s (confidence %.0f%%, entropy %.2f)\n", snap.Domain, snap.Confidence*100, snap.Entropy)
	if snap.Causal != nil {
		fmt.Fprintf(&b, "Causal effect of %s on %s: %.3f", snap.Causal.Treatment, snap.Causal.Outcome, snap.Causal.Effect)
		if snap.Causal.Method != "" {
			fmt.Fprintf(&b, " (%s)", snap.Causal.Method)
		}
		if snap.Causal.RefuterPassed {
			b.WriteString(", refuters passed")
		} else {
			b.WriteString(", refuters NOT passed")
		}
		b.WriteString("\n")
	}
	if snap.Bayesian != nil {
		fmt.Fprintf(&b, "Bayesian posterior mean %.3f, 95%% credible interval [%.3f, %.3f]\n",
			snap.Bayesian.PosteriorMean, snap.Bayesian.CredibleLow, snap.Bayesian.CredibleHigh)
	}
	if snap.Verdict != "" {
		fmt.Fprintf(&b, "Verdict: %s", snap.Verdict)
	}
	return strings.TrimRight(b.String(), "\n")
}

// unavailableText explains that a command's collaborator was not wired into
// this dispatcher, such as in the standalone CLI.
func unavailableText(feature string) string {
	return fmt.Sprintf("The %s is not available in this session.", feature)
}

// topicNames returns the sorted help topic keys.
func topicNames() []string {
	names := make([]string, 0, len(helpTopics))
	for k := range helpTopics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
