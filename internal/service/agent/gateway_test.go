package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
	"github.com/zhouzirui/agent-chat/backend/internal/metrics"
)

func TestResultText(t *testing.T) {
	cases := []struct {
		name   string
		result Result
		want   string
	}{
		{"reply", Result{Outcome: OutcomeReply, Output: "plain"}, "plain"},
		{"success", Result{Outcome: OutcomeSuccess, Output: "cpu=3%"}, "**Agent Response**\n\ncpu=3%"},
		{"no output", Result{Outcome: OutcomeNoOutput}, "Agent executed successfully but returned no output."},
		{"timeout", Result{Outcome: OutcomeTimedOut, Timeout: 30 * time.Second}, "**Error**: Query timed out after 30 seconds."},
		{"invocation", Result{Outcome: OutcomeInvocationFailed, Err: errors.New("exec: \"python\": not found")}, "**Error**: exec: \"python\": not found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.result.Text())
		})
	}
}

func TestResultTextNonZeroExitEmbedsStderr(t *testing.T) {
	text := Result{Outcome: OutcomeNonZeroExit, Stderr: "connection refused"}.Text()

	assert.Contains(t, text, "**Error executing agent**")
	assert.Contains(t, text, "Stderr: connection refused")
	assert.Contains(t, text, "Prometheus is running")
}

func TestResultFailed(t *testing.T) {
	assert.False(t, Result{Outcome: OutcomeReply}.Failed())
	assert.False(t, Result{Outcome: OutcomeNoOutput}.Failed())
	assert.True(t, Result{Outcome: OutcomeTimedOut}.Failed())
	assert.True(t, Result{Outcome: OutcomeNonZeroExit}.Failed())
	assert.True(t, Result{Outcome: OutcomeInvocationFailed}.Failed())
}

func TestNewSelectsGateway(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, config.AgentConfig{}, config.AIConfig{})
	require.NoError(t, err)
	assert.Equal(t, "mock", g.Mode())

	g, err = New(ctx, config.AgentConfig{UseReal: true, Backend: "ark"}, config.AIConfig{})
	require.NoError(t, err)
	assert.Equal(t, "process", g.Mode())

	_, err = New(ctx, config.AgentConfig{Backend: "ark"}, config.AIConfig{})
	assert.Error(t, err)
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AgentConfig{Path: dir}
	assert.False(t, Available(cfg))
	assert.False(t, Available(config.AgentConfig{}))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(cfg.CLIPath(), []byte("print('ok')\n"), 0o644))
	assert.True(t, Available(cfg))
}

func TestObserveRecordsOutcome(t *testing.T) {
	m := metrics.New()
	g := Observe(NewMockGateway(), m)

	result := g.Query(context.Background(), Request{SessionID: "s1", Query: "hello"})

	assert.Equal(t, OutcomeReply, result.Outcome)
	assert.Equal(t, "mock", g.Mode())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AgentQueriesTotal.WithLabelValues("mock", "reply")))
}
