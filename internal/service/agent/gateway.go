// Package agent turns a free-text query into response text, either from a
// fixed mock, an external agent process or an Ark chat model.
//
// Gateways never fail past their boundary: every failure is described by a
// Result whose Text is what the user sees.
package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
	"github.com/zhouzirui/agent-chat/backend/internal/metrics"
	"github.com/zhouzirui/agent-chat/backend/internal/model/chat"
)

// Gateway answers a single query.
type Gateway interface {
	Query(ctx context.Context, req Request) Result
	Mode() string
}

// Request carries the query and the transcript that preceded it.
type Request struct {
	SessionID string
	Query     string
	History   []chat.Message
}

// Outcome names how a query ended.
type Outcome string

const (
	OutcomeReply            Outcome = "reply"
	OutcomeSuccess          Outcome = "success"
	OutcomeNoOutput         Outcome = "no_output"
	OutcomeNonZeroExit      Outcome = "non_zero_exit"
	OutcomeTimedOut         Outcome = "timed_out"
	OutcomeInvocationFailed Outcome = "invocation_failed"
)

// Result is the explicit variant produced by a gateway call.
type Result struct {
	Outcome  Outcome
	Output   string
	Stderr   string
	ExitCode int
	Err      error
	Timeout  time.Duration
	Duration time.Duration
}

// Text renders the result as the bot message content.
func (r Result) Text() string {
	switch r.Outcome {
	case OutcomeReply:
		return r.Output
	case OutcomeSuccess:
		return fmt.Sprintf("**Agent Response**\n\n%s", r.Output)
	case OutcomeNoOutput:
		return "Agent executed successfully but returned no output."
	case OutcomeNonZeroExit:
		return fmt.Sprintf("**Error executing agent**\n\nStderr: %s\n\nMake sure:\n1. Prometheus is running\n2. Ollama is running with a model\n3. Agent is properly configured", r.Stderr)
	case OutcomeTimedOut:
		return fmt.Sprintf("**Error**: Query timed out after %d seconds.", int(r.Timeout.Round(time.Second)/time.Second))
	case OutcomeInvocationFailed:
		reason := "unknown failure"
		if r.Err != nil {
			reason = r.Err.Error()
		}
		return fmt.Sprintf("**Error**: %s", reason)
	default:
		return fmt.Sprintf("**Error**: unexpected agent outcome %q", r.Outcome)
	}
}

// Failed reports whether the result describes a failure.
func (r Result) Failed() bool {
	switch r.Outcome {
	case OutcomeNonZeroExit, OutcomeTimedOut, OutcomeInvocationFailed:
		return true
	default:
		return false
	}
}

// New selects the gateway for the configuration. The process gateway wins
// when the real agent is enabled; AGENT_BACKEND=ark picks the chat model;
// everything else falls back to the mock.
func New(ctx context.Context, cfg config.AgentConfig, aiCfg config.AIConfig) (Gateway, error) {
	switch {
	case cfg.UseReal:
		return NewProcessGateway(cfg), nil
	case cfg.Backend == "ark":
		chatModel, err := aiCfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		return NewArkGateway(ctx, chatModel, cfg.Timeout)
	default:
		return NewMockGateway(), nil
	}
}

// Available reports whether the external agent CLI exists on disk.
func Available(cfg config.AgentConfig) bool {
	if cfg.Path == "" {
		return false
	}
	_, err := os.Stat(cfg.CLIPath())
	return err == nil
}

type observed struct {
	next    Gateway
	metrics *metrics.Metrics
}

// Observe wraps g so every call is logged and recorded in m.
func Observe(g Gateway, m *metrics.Metrics) Gateway {
	return &observed{next: g, metrics: m}
}

func (o *observed) Mode() string {
	return o.next.Mode()
}

func (o *observed) Query(ctx context.Context, req Request) Result {
	start := time.Now()
	result := o.next.Query(ctx, req)
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}

	o.metrics.RecordAgentQuery(o.next.Mode(), string(result.Outcome), result.Duration)

	event := log.Debug()
	if result.Failed() {
		event = log.Warn().Err(result.Err).Int("exit_code", result.ExitCode)
	}
	event.
		Str("session_id", req.SessionID).
		Str("mode", o.next.Mode()).
		Str("outcome", string(result.Outcome)).
		Dur("duration", result.Duration).
		Msg("Agent query finished")

	return result
}
