package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CausalDeck/Cockpit/internal/catalog"
	"github.com/CausalDeck/Cockpit/internal/dialogue"
	"github.com/CausalDeck/Cockpit/internal/dispatch"
	"github.com/CausalDeck/Cockpit/internal/models"
)

type stubQueries struct{ reply string }

func (s stubQueries) RunQuery(context.Context, string) (string, error) { return s.reply, nil }

type stubBenchmarks struct{}

func (stubBenchmarks) ListBenchmarks(context.Context) ([]string, error) {
	return []string{"classification"}, nil
}

func (stubBenchmarks) RunBenchmark(_ context.Context, name string) (string, error) {
	return name + " done", nil
}

type stubSummaries struct{}

func (stubSummaries) GenerateSummary(context.Context) (string, error) { return "summary text", nil }

type stubPanels struct{}

func (stubPanels) OpenAnalysis(context.Context) error { return nil }
func (stubPanels) OpenHistory(context.Context) error  { return nil }

type stubChat struct {
	reply string
	err   error
	calls int
}

func (c *stubChat) Reply(_ context.Context, _ []models.Message, _ string) (string, error) {
	c.calls++
	return c.reply, c.err
}

type recordingStore struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (r *recordingStore) AddMessage(_ context.Context, _ string, msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func newTestSession(chat ChatService, store Recorder) *Session {
	return New(Opts{
		Engine: dialogue.NewEngine(catalog.New()),
		Chat:   chat,
		Store:  store,
		Dispatch: func(snaps dispatch.SnapshotProvider) *dispatch.Dispatcher {
			return dispatch.New(dispatch.Opts{
				Queries:    stubQueries{reply: "query answer"},
				Benchmarks: stubBenchmarks{},
				Summaries:  stubSummaries{},
				Snapshots:  snaps,
				Panels:     stubPanels{},
			})
		},
	})
}

func TestHandleInputRejectsEmpty(t *testing.T) {
	s := newTestSession(nil, nil)
	if _, err := s.HandleInput(context.Background(), "   "); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestHandleInputRejectsOversized(t *testing.T) {
	s := newTestSession(nil, nil)
	big := strings.Repeat("x", models.MaxInputLength+1)
	if _, err := s.HandleInput(context.Background(), big); !errors.Is(err, models.ErrInputTooLong) {
		t.Errorf("expected ErrInputTooLong, got %v", err)
	}
}

func TestCommandRoutedToDispatcher(t *testing.T) {
	s := newTestSession(nil, nil)
	out, err := s.HandleInput(context.Background(), "/query why is churn rising?")
	if err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	if len(out) != 1 || out[0].Content != "query answer" {
		t.Errorf("expected the dispatcher reply, got %v", out)
	}

	log := s.Transcript()
	if len(log) != 2 {
		t.Fatalf("expected user+assistant messages in the transcript, got %d", len(log))
	}
	if !log[0].IsSlashCommand || log[0].CommandType != models.CommandRunQuery {
		t.Errorf("user message should be tagged as a run-query command, got %+v", log[0])
	}
	if log[1].Role != models.RoleAssistant {
		t.Errorf("second message should be the assistant reply, got %+v", log[1])
	}
}

func TestSocraticStartsFlowAndAnswersRoute(t *testing.T) {
	s := newTestSession(nil, nil)

	out, err := s.HandleInput(context.Background(), "/socratic")
	if err != nil {
		t.Fatalf("starting flow failed: %v", err)
	}
	if !s.State().IsActive {
		t.Fatal("flow should be active after /socratic")
	}
	if len(out) < 2 {
		t.Fatalf("expected intro and first question, got %d messages", len(out))
	}
	if len(s.Highlights()) == 0 {
		t.Error("first step should highlight a panel")
	}

	// Plain text now routes to the flow, not the chat service.
	out, err = s.HandleInput(context.Background(), "this feels complex and emergent")
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if s.State().CurrentStepIndex != 1 {
		t.Errorf("answer should advance the flow, index=%d", s.State().CurrentStepIndex)
	}
	if !strings.Contains(out[len(out)-1].Content, "Question 2 of") {
		t.Errorf("expected the second question, got %q", out[len(out)-1].Content)
	}
}

func TestStopCancelsActiveFlow(t *testing.T) {
	s := newTestSession(nil, nil)
	if _, err := s.HandleInput(context.Background(), "/socratic"); err != nil {
		t.Fatalf("starting flow failed: %v", err)
	}
	out, err := s.HandleInput(context.Background(), "/stop")
	if err != nil {
		t.Fatalf("/stop failed: %v", err)
	}
	if s.State().IsActive {
		t.Error("flow should be idle after /stop")
	}
	if len(s.Highlights()) != 0 {
		t.Errorf("/stop should clear highlights, got %v", s.Highlights())
	}
	if !strings.Contains(out[0].Content, "Stopped") {
		t.Errorf("expected a stop acknowledgment, got %q", out[0].Content)
	}
}

func TestActiveFlowConsumesSlashInput(t *testing.T) {
	s := newTestSession(nil, nil)
	if _, err := s.HandleInput(context.Background(), "/socratic"); err != nil {
		t.Fatalf("starting flow failed: %v", err)
	}

	out, err := s.HandleInput(context.Background(), "/help entropy")
	if err != nil {
		t.Fatalf("slash input during flow failed: %v", err)
	}
	st := s.State()
	if st.CurrentStepIndex != 1 {
		t.Errorf("slash input must be consumed as the answer, index=%d", st.CurrentStepIndex)
	}
	if len(st.Answers) != 1 || st.Answers[0] != "/help entropy" {
		t.Errorf("the raw line should be recorded as the answer, got %v", st.Answers)
	}
	if !strings.Contains(out[len(out)-1].Content, "Question 2 of") {
		t.Errorf("expected the next question, not help text, got %q", out[len(out)-1].Content)
	}

	log := s.Transcript()
	for _, m := range log {
		if m.IsSlashCommand && m.Content == "/help entropy" {
			t.Error("a consumed answer must not be tagged as a command")
		}
	}
}

func TestUnknownVerbFallsThroughToChat(t *testing.T) {
	chat := &stubChat{reply: "a model-written reply"}
	s := newTestSession(chat, nil)

	out, err := s.HandleInput(context.Background(), "/frobnicate the flux")
	if err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	if chat.calls != 1 {
		t.Errorf("unknown verb should reach the chat service, got %d calls", chat.calls)
	}
	if out[0].Content != chat.reply {
		t.Errorf("expected the chat reply, got %q", out[0].Content)
	}
	if log := s.Transcript(); log[0].IsSlashCommand {
		t.Error("an unknown verb is not a command and must not be tagged as one")
	}
}

func TestFullFlowRunYieldsSuggestions(t *testing.T) {
	s := newTestSession(nil, nil)
	s.SetSnapshot(nil)

	if _, err := s.HandleInput(context.Background(), "/socratic"); err != nil {
		t.Fatalf("starting flow failed: %v", err)
	}
	answers := []string{
		"this feels complex and emergent",
		"not sure, seems risky",
		"no clear expert owns this",
		"we'd need to experiment",
	}
	var last []models.Message
	for _, a := range answers {
		out, err := s.HandleInput(context.Background(), a)
		if err != nil {
			t.Fatalf("answer %q failed: %v", a, err)
		}
		last = out
	}
	if s.State().IsActive {
		t.Error("flow should complete after four answers")
	}
	if len(s.State().Suggestions) == 0 {
		t.Error("completed flow should leave suggestions on the state")
	}
	summary := last[len(last)-1].Content
	if !strings.Contains(summary, "probe-sense-respond") {
		t.Errorf("summary should carry the probing suggestion, got %q", summary)
	}
	if len(s.Highlights()) != 0 {
		t.Errorf("completion should clear highlights, got %v", s.Highlights())
	}
}

func TestSnapshotDrivesFlowSelection(t *testing.T) {
	s := newTestSession(nil, nil)
	s.SetSnapshot(&models.AnalysisSnapshot{
		Domain: "complicated",
		Causal: &models.CausalResult{Effect: 0.2},
	})

	if _, err := s.HandleInput(context.Background(), "/socratic"); err != nil {
		t.Fatalf("starting flow failed: %v", err)
	}
	if got := s.State().ActiveFlowID; got != "causal-exploration" {
		t.Errorf("causal snapshot should select causal-exploration, got %s", got)
	}
}

func TestFreeFormFallsBackToChat(t *testing.T) {
	chat := &stubChat{reply: "a model-written reply"}
	s := newTestSession(chat, nil)

	out, err := s.HandleInput(context.Background(), "what should I look at first?")
	if err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	if chat.calls != 1 {
		t.Errorf("expected one chat call, got %d", chat.calls)
	}
	if out[0].Content != chat.reply {
		t.Errorf("expected the chat reply, got %q", out[0].Content)
	}
}

func TestFreeFormChatFailureDegrades(t *testing.T) {
	chat := &stubChat{err: errors.New("rate limited")}
	s := newTestSession(chat, nil)

	out, err := s.HandleInput(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("chat failure must not fail input handling: %v", err)
	}
	if !strings.Contains(out[0].Content, "/help") {
		t.Errorf("degraded reply should point at /help, got %q", out[0].Content)
	}
}

func TestFreeFormWithoutChatService(t *testing.T) {
	s := newTestSession(nil, nil)
	out, err := s.HandleInput(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	if !strings.Contains(out[0].Content, "/help") {
		t.Errorf("expected the fixed guidance reply, got %q", out[0].Content)
	}
}

type blockingChat struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingChat) Reply(context.Context, []models.Message, string) (string, error) {
	close(c.started)
	<-c.release
	return "late reply", nil
}

func TestInFlightChatDoesNotBlockCommands(t *testing.T) {
	chat := &blockingChat{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(chat, nil)

	chatDone := make(chan struct{})
	go func() {
		defer close(chatDone)
		if _, err := s.HandleInput(context.Background(), "tell me about my data"); err != nil {
			t.Errorf("chat input failed: %v", err)
		}
	}()
	<-chat.started

	helpDone := make(chan struct{})
	go func() {
		defer close(helpDone)
		if _, err := s.HandleInput(context.Background(), "/help"); err != nil {
			t.Errorf("/help failed: %v", err)
		}
	}()
	select {
	case <-helpDone:
	case <-time.After(2 * time.Second):
		t.Fatal("command input blocked behind the in-flight chat call")
	}

	close(chat.release)
	<-chatDone

	found := false
	for _, m := range s.Transcript() {
		if m.Content == "late reply" {
			found = true
		}
	}
	if !found {
		t.Error("the late chat reply should still land in the transcript")
	}
}

func TestStoreMirroring(t *testing.T) {
	store := &recordingStore{}
	s := newTestSession(nil, store)

	if _, err := s.HandleInput(context.Background(), "/help"); err != nil {
		t.Fatalf("HandleInput failed: %v", err)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.msgs) != 2 {
		t.Errorf("expected user and assistant messages mirrored, got %d", len(store.msgs))
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(Opts{
		Engine: dialogue.NewEngine(catalog.New()),
		Dispatch: func(snaps dispatch.SnapshotProvider) *dispatch.Dispatcher {
			return dispatch.New(dispatch.Opts{
				Queries:    stubQueries{},
				Benchmarks: stubBenchmarks{},
				Summaries:  stubSummaries{},
				Snapshots:  snaps,
				Panels:     stubPanels{},
			})
		},
	})

	s := m.Create()
	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != s {
		t.Error("Get should return the created session")
	}

	if _, err := m.Get("missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	m.Delete(s.ID())
	if _, err := m.Get(s.ID()); !errors.Is(err, models.ErrSessionNotFound) {
		t.Error("deleted session should be gone")
	}
	if m.Count() != 0 {
		t.Errorf("expected zero sessions, got %d", m.Count())
	}
}
