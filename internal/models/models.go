// Package models defines the core data structures for the Cockpit guidance engine.
//
// It includes types for transcript messages, slash commands, questioning flows,
// dialogue state, and analysis snapshots, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser marks a message submitted by the dashboard user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the guidance engine.
	RoleAssistant Role = "assistant"
	// RoleSystem marks an engine-internal notice surfaced to the user.
	RoleSystem Role = "system"
)

// IsValidRole checks if the given role is supported.
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// CommandType identifies one of the closed set of slash commands.
type CommandType string

const (
	// CommandOpenAnalysis launches the external file upload/analysis flow.
	CommandOpenAnalysis CommandType = "open-analysis"
	// CommandStartQuestioning begins a Socratic questioning flow.
	CommandStartQuestioning CommandType = "start-questioning"
	// CommandRunQuery forwards a free-form query to the analysis backend.
	CommandRunQuery CommandType = "run-query"
	// CommandShowSnapshot renders the latest analysis result summary.
	CommandShowSnapshot CommandType = "show-snapshot"
	// CommandOpenHistory opens the external past-analyses browser.
	CommandOpenHistory CommandType = "open-history"
	// CommandShowHelp lists commands or explains a help topic.
	CommandShowHelp CommandType = "show-help"
	// CommandRunBenchmark lists or runs backend benchmarks.
	CommandRunBenchmark CommandType = "run-benchmark"
	// CommandGenerateSummary requests a summary from the backend.
	CommandGenerateSummary CommandType = "generate-summary"
	// CommandStopDialogue cancels the active questioning flow.
	CommandStopDialogue CommandType = "stop-dialogue"
)

// IsValidCommandType checks if the given command type is supported.
func IsValidCommandType(ct CommandType) bool {
	switch ct {
	case CommandOpenAnalysis, CommandStartQuestioning, CommandRunQuery,
		CommandShowSnapshot, CommandOpenHistory, CommandShowHelp,
		CommandRunBenchmark, CommandGenerateSummary, CommandStopDialogue:
		return true
	default:
		return false
	}
}

// Validation constants for input validation
const (
	// MaxInputLength defines the maximum allowed length for a single input line
	MaxInputLength = 8192
	// MaxMessageContentLength defines the maximum allowed length for message content
	MaxMessageContentLength = 16384
)

// Error variables for better error handling and testability
var (
	ErrEmptyInput        = errors.New("input cannot be empty")
	ErrInputTooLong      = errors.New("input exceeds maximum length")
	ErrInvalidRole       = errors.New("invalid message role")
	ErrEmptyContent      = errors.New("message content cannot be empty")
	ErrContentTooLong    = errors.New("message content exceeds maximum length")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDialogueNotActive = errors.New("no questioning flow is active")
	ErrDialogueActive    = errors.New("a questioning flow is already active")
	ErrUnknownFlow       = errors.New("unknown questioning flow")
)

// Message represents one transcript entry.
//
// JSON field names match the export document consumed by the dashboard,
// hence the camelCase tags.
type Message struct {
	ID             string      `json:"id"`
	Role           Role        `json:"role"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
	IsSlashCommand bool        `json:"isSlashCommand,omitempty"`
	CommandType    CommandType `json:"commandType,omitempty"`
	Confidence     string      `json:"confidence,omitempty"`
	LinkedPanel    string      `json:"linkedPanel,omitempty"`
}

// Validate performs validation on a Message structure.
func (m *Message) Validate() error {
	if !IsValidRole(m.Role) {
		return ErrInvalidRole
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if len(m.Content) > MaxMessageContentLength {
		return ErrContentTooLong
	}
	return nil
}

// CommandDescriptor documents one slash command for help text and autocomplete.
// It is static metadata, not runtime state.
type CommandDescriptor struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Example     string `json:"example"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
	// APIStatusCreated indicates a resource was created via API.
	APIStatusCreated APIStatus = "created"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{response: APIResponse{}}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}

// Created creates a created API response with optional result data.
func Created(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusCreated).
		WithResult(result).
		Build()
}
