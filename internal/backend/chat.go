package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// systemPrompt frames the model's role for free-form replies. The model
// explains; it never fabricates analysis numbers.
const systemPrompt = "You are the conversational guide of a causal and Bayesian analysis dashboard. " +
	"Answer questions about causal inference, Bayesian reasoning, entropy, and the dashboard's panels in plain language. " +
	"Never invent analysis results; when the user asks about their data, point them at /query, /snapshot, or /socratic instead."

// chatHistoryLimit caps how many recent transcript messages are sent as
// conversation context.
const chatHistoryLimit = 20

// completionService is the slice of the OpenAI client the chat needs,
// extracted for testing.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ChatClient produces free-form assistant replies via the OpenAI API.
type ChatClient struct {
	chat  completionService
	model openai.ChatModel
}

// ChatOpts configures the chat client. APIKey is required; Model defaults to
// GPT-4o mini.
type ChatOpts struct {
	APIKey string
	Model  string
}

// NewChatClient creates a chat client from the given options.
func NewChatClient(opts ChatOpts) (*ChatClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := openai.ChatModelGPT4oMini
	if opts.Model != "" {
		model = openai.ChatModel(opts.Model)
	}
	cli := openai.NewClient(option.WithAPIKey(opts.APIKey))
	return &ChatClient{chat: &cli.Chat.Completions, model: model}, nil
}

// Reply generates a free-form assistant reply, feeding the recent transcript
// as conversation context. Messages flagged as slash commands are skipped;
// they are routing artifacts, not conversation.
func (c *ChatClient) Reply(ctx context.Context, history []models.Message, input string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, m := range recentHistory(history) {
		switch m.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(input))

	completion, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("chat completion returned an empty reply")
	}
	slog.Debug("ChatClient.Reply: completion received", "historyMessages", len(messages)-2, "replyLength", len(reply))
	return reply, nil
}

// recentHistory returns the tail of the transcript with command traffic
// filtered out.
func recentHistory(history []models.Message) []models.Message {
	var out []models.Message
	for _, m := range history {
		if m.IsSlashCommand {
			continue
		}
		out = append(out, m)
	}
	if len(out) > chatHistoryLimit {
		out = out[len(out)-chatHistoryLimit:]
	}
	return out
}
