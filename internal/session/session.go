// Package session owns the per-conversation state: the transcript, the
// dialogue state machine, the current analysis snapshot, and the highlight
// set for the dashboard panels.
//
// HandleInput is the single entry point for user text. Routing is serialized
// under one mutex; the lock is released for the duration of a chat completion
// so a slow model call never blocks further input, and the late reply then
// only appends to the transcript.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CausalDeck/Cockpit/internal/dialogue"
	"github.com/CausalDeck/Cockpit/internal/dispatch"
	"github.com/CausalDeck/Cockpit/internal/models"
	"github.com/CausalDeck/Cockpit/internal/transcript"
)

// chatTimeout bounds the free-form chat completion call.
const chatTimeout = 30 * time.Second

// ChatService produces a free-form assistant reply for input that is neither
// a command nor a flow answer. Implementations may consult the recent
// transcript for context.
type ChatService interface {
	Reply(ctx context.Context, history []models.Message, input string) (string, error)
}

// Recorder persists transcript messages outside the process. Persistence is
// best-effort: failures are logged, never surfaced to the user.
type Recorder interface {
	AddMessage(ctx context.Context, sessionID string, msg models.Message) error
}

// Opts carries a session's collaborators. Chat and Store may be nil; the
// session then answers free-form input with a fixed pointer to /help and
// skips persistence.
type Opts struct {
	Engine *dialogue.Engine
	Chat   ChatService
	Store  Recorder
	// Dispatch builds the dispatcher once the session exists, so the
	// dispatcher can read the session's snapshot. Required.
	Dispatch func(snapshots dispatch.SnapshotProvider) *dispatch.Dispatcher
}

// Session is one user's conversation with the guidance engine.
type Session struct {
	id         string
	createdAt  time.Time
	engine     *dialogue.Engine
	dispatcher *dispatch.Dispatcher
	chat       ChatService
	store      Recorder
	log        *transcript.Transcript

	mu         sync.Mutex
	state      models.DialogueState
	highlights []models.HighlightTarget

	snapMu   sync.RWMutex
	snapshot *models.AnalysisSnapshot
}

// New creates a session with a fresh ID and empty transcript.
func New(opts Opts) *Session {
	s := &Session{
		id:         uuid.NewString(),
		createdAt:  time.Now().UTC(),
		engine:     opts.Engine,
		chat:       opts.Chat,
		store:      opts.Store,
		log:        transcript.New(),
		state:      models.NewDialogueState(),
		highlights: []models.HighlightTarget{},
	}
	s.dispatcher = opts.Dispatch(s)
	slog.Info("Session.New: session created", "sessionID", s.id)
	return s
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session's creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Snapshot implements dispatch.SnapshotProvider.
func (s *Session) Snapshot() *models.AnalysisSnapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

// SetSnapshot replaces the analysis context used for flow selection and the
// /snapshot command.
func (s *Session) SetSnapshot(snap *models.AnalysisSnapshot) {
	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()
	slog.Debug("Session.SetSnapshot: snapshot updated", "sessionID", s.id, "hasSnapshot", snap != nil)
}

// Highlights returns the current panel highlight set.
func (s *Session) Highlights() []models.HighlightTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HighlightTarget, len(s.highlights))
	copy(out, s.highlights)
	return out
}

// State returns a copy of the dialogue state.
func (s *Session) State() models.DialogueState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the messages logged so far.
func (s *Session) Transcript() []models.Message {
	return s.log.All()
}

// ExportTranscript serializes the transcript for download.
func (s *Session) ExportTranscript() ([]byte, error) {
	return s.log.Export()
}

// HandleInput routes one piece of user text and returns the assistant
// messages produced in response. Routing order: an active flow consumes all
// input as the answer, with /stop as the one recognized exception; otherwise
// known slash commands go to the dispatcher; anything else, including slash
// lines naming no known command, goes to the chat service.
func (s *Session) HandleInput(ctx context.Context, input string) ([]models.Message, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, models.ErrEmptyInput
	}
	if len(trimmed) > models.MaxInputLength {
		return nil, models.ErrInputTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, _, parsed := dispatch.Parse(trimmed)
	answerToFlow := s.state.IsActive && (!parsed || cmd != models.CommandStopDialogue)

	userMsg := models.Message{Role: models.RoleUser, Content: trimmed}
	if parsed && !answerToFlow {
		userMsg.IsSlashCommand = true
		userMsg.CommandType = cmd
	}
	s.record(ctx, userMsg)

	var replies []string
	var highlights []models.HighlightTarget

	switch {
	case answerToFlow:
		eff, err := s.engine.Answer(&s.state, trimmed)
		if err != nil {
			return nil, fmt.Errorf("answering flow step: %w", err)
		}
		replies = eff.Messages
		highlights = eff.Highlights
	case parsed:
		res, err := s.dispatcher.Dispatch(ctx, trimmed)
		if err != nil {
			return nil, fmt.Errorf("dispatching command: %w", err)
		}
		replies = append(replies, res.Messages...)
		eff, msgs := s.applyAction(res.Action)
		replies = append(replies, msgs...)
		highlights = eff
	default:
		// The chat call can take a long time. Drop the lock so further
		// input is still accepted; the reply only appends to the
		// transcript, so it commutes with anything handled meanwhile.
		s.mu.Unlock()
		reply := s.freeFormReply(ctx, trimmed)
		s.mu.Lock()
		replies = []string{reply}
	}

	if highlights != nil {
		s.highlights = highlights
	}

	out := make([]models.Message, 0, len(replies))
	for _, r := range replies {
		if r == "" {
			continue
		}
		msg := models.Message{Role: models.RoleAssistant, Content: r}
		stored := s.record(ctx, msg)
		out = append(out, stored)
	}
	return out, nil
}

// applyAction performs the dialogue transition a command requested and
// returns the resulting highlight replacement (nil for no change) and any
// messages.
func (s *Session) applyAction(a dispatch.Action) ([]models.HighlightTarget, []string) {
	switch a {
	case dispatch.ActionStartQuestioning:
		eff, err := s.engine.Start(&s.state, s.Snapshot().FlowContext())
		if err != nil {
			slog.Error("Session.applyAction: starting flow failed", "sessionID", s.id, "error", err)
			return nil, []string{"The questioning flow could not be started."}
		}
		return eff.Highlights, eff.Messages
	case dispatch.ActionStopQuestioning:
		eff := s.engine.Reset(&s.state)
		return eff.Highlights, eff.Messages
	default:
		return nil, nil
	}
}

// freeFormReply answers non-command input outside a flow via the chat
// service, degrading to a fixed pointer at /help when chat is unavailable.
func (s *Session) freeFormReply(ctx context.Context, input string) string {
	if s.chat == nil {
		return "I route commands and questioning flows; type /help to see what I can do, or /socratic to start a guided review."
	}
	cctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()
	reply, err := s.chat.Reply(cctx, s.log.All(), input)
	if err != nil {
		slog.Error("Session.freeFormReply: chat service failed", "sessionID", s.id, "error", err)
		return "I could not reach the language model just now. Commands still work; type /help for the list."
	}
	return reply
}

// record appends to the in-memory transcript and mirrors to the store.
// Store failures are logged and swallowed.
func (s *Session) record(ctx context.Context, msg models.Message) models.Message {
	stored, err := s.log.Append(msg)
	if err != nil {
		slog.Warn("Session.record: transcript append failed", "sessionID", s.id, "error", err)
		return msg
	}
	if s.store != nil {
		if err := s.store.AddMessage(ctx, s.id, stored); err != nil {
			slog.Warn("Session.record: store mirror failed", "sessionID", s.id, "messageID", stored.ID, "error", err)
		}
	}
	return stored
}
