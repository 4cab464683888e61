// Local CLI mode: a single in-process session on stdin/stdout, useful for
// trying flows and commands without the dashboard or an analysis backend.
// The full HTTP service lives in cmd/Cockpit.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/CausalDeck/Cockpit/internal/catalog"
	"github.com/CausalDeck/Cockpit/internal/dialogue"
	"github.com/CausalDeck/Cockpit/internal/dispatch"
	"github.com/CausalDeck/Cockpit/internal/models"
	"github.com/CausalDeck/Cockpit/internal/session"
)

// noBackend answers backend-bound commands when no analysis service is
// attached.
type noBackend struct{}

func (noBackend) RunQuery(context.Context, string) (string, error) {
	return "", fmt.Errorf("no analysis backend attached in CLI mode")
}

func (noBackend) ListBenchmarks(context.Context) ([]string, error) {
	return nil, fmt.Errorf("no analysis backend attached in CLI mode")
}

func (noBackend) RunBenchmark(context.Context, string) (string, error) {
	return "", fmt.Errorf("no analysis backend attached in CLI mode")
}

func (noBackend) GenerateSummary(context.Context) (string, error) {
	return "", fmt.Errorf("no analysis backend attached in CLI mode")
}

func (noBackend) OpenAnalysis(context.Context) error {
	return fmt.Errorf("no dashboard attached in CLI mode")
}

func (noBackend) OpenHistory(context.Context) error {
	return fmt.Errorf("no dashboard attached in CLI mode")
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	sess := session.New(session.Opts{
		Engine: dialogue.NewEngine(catalog.New()),
		Dispatch: func(snaps dispatch.SnapshotProvider) *dispatch.Dispatcher {
			return dispatch.New(dispatch.Opts{
				Queries:    noBackend{},
				Benchmarks: noBackend{},
				Summaries:  noBackend{},
				Snapshots:  snaps,
				Panels:     noBackend{},
			})
		},
	})

	fmt.Println("Cockpit CLI mode. Type /help for commands, /socratic to start a flow, Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), models.MaxInputLength+1)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		replies, err := sess.HandleInput(context.Background(), scanner.Text())
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		for _, r := range replies {
			fmt.Println(r.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "reading input: %v\n", err)
		os.Exit(1)
	}
	fmt.Println()
}
