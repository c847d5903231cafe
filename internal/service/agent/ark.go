package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
)

const (
	historyLimit = 10

	arkSystemPrompt = "You are a time-series observability assistant. " +
		"Answer questions about metrics, alerts and infrastructure health clearly and concisely. " +
		"When a question needs live data you cannot access, say which PromQL query would answer it."
)

// ArkGateway answers queries with a chat model through an eino chain.
type ArkGateway struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewArkGateway compiles the prompt -> model chain around chatModel.
func NewArkGateway(ctx context.Context, chatModel model.ChatModel, timeout time.Duration) (*ArkGateway, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ArkGateway{chain: runnable, timeout: timeout}, nil
}

// Mode implements Gateway.
func (*ArkGateway) Mode() string {
	return "ark"
}

// Query implements Gateway.
func (g *ArkGateway) Query(ctx context.Context, req Request) Result {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	response, err := g.chain.Invoke(callCtx, map[string]any{
		"system":  arkSystemPrompt,
		"history": buildHistoryMessages(req.History),
		"query":   req.Query,
	})

	result := Result{Timeout: g.timeout, Duration: time.Since(start)}
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		result.Outcome = OutcomeTimedOut
		result.Err = context.DeadlineExceeded
	case err != nil:
		result.Outcome = OutcomeInvocationFailed
		result.Err = fmt.Errorf("failed to run AI chain: %w", err)
	case response == nil || response.Content == "":
		result.Outcome = OutcomeNoOutput
	default:
		result.Outcome = OutcomeReply
		result.Output = response.Content
	}
	return result
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleBot:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
