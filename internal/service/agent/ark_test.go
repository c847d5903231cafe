package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
)

type fakeChatModel struct {
	reply string
	err   error
	delay time.Duration
	input []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestArkGatewayReply(t *testing.T) {
	fake := &fakeChatModel{reply: "load is nominal"}
	g, err := NewArkGateway(context.Background(), fake, time.Second)
	require.NoError(t, err)

	at := time.Now()
	result := g.Query(context.Background(), Request{
		Query: "and now?",
		History: []chat.Message{
			chat.NewMessage(chat.RoleUser, "how is the load?", at),
			chat.NewMessage(chat.RoleBot, "fine", at),
		},
	})

	assert.Equal(t, OutcomeReply, result.Outcome)
	assert.Equal(t, "load is nominal", result.Text())
	require.Len(t, fake.input, 4)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, schema.Assistant, fake.input[2].Role)
	assert.Equal(t, "and now?", fake.input[3].Content)
}

func TestArkGatewayFailure(t *testing.T) {
	g, err := NewArkGateway(context.Background(), &fakeChatModel{err: errors.New("quota exceeded")}, time.Second)
	require.NoError(t, err)

	result := g.Query(context.Background(), Request{Query: "q"})

	assert.Equal(t, OutcomeInvocationFailed, result.Outcome)
	assert.Contains(t, result.Text(), "quota exceeded")
}

func TestArkGatewayTimeout(t *testing.T) {
	g, err := NewArkGateway(context.Background(), &fakeChatModel{reply: "late", delay: time.Second}, 50*time.Millisecond)
	require.NoError(t, err)

	result := g.Query(context.Background(), Request{Query: "q"})

	assert.Equal(t, OutcomeTimedOut, result.Outcome)
}

func TestBuildHistoryMessagesKeepsRecentTurns(t *testing.T) {
	at := time.Now()
	messages := make([]chat.Message, 0, 14)
	for i := 0; i < 7; i++ {
		messages = append(messages,
			chat.NewMessage(chat.RoleUser, "q", at),
			chat.NewMessage(chat.RoleBot, "a", at),
		)
	}

	history := buildHistoryMessages(messages)

	assert.Len(t, history, historyLimit)
	assert.Nil(t, buildHistoryMessages(nil))
}
