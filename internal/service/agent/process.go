package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/agent-chat/backend/internal/config"
)

const artifactAlphabet = "0123456789abcdef"

// querySet is the document read by the agent's --query-set flag.
type querySet struct {
	Queries []string `yaml:"queries"`
}

// ProcessGateway runs the external agent CLI once per query.
type ProcessGateway struct {
	cfg config.AgentConfig
}

// NewProcessGateway returns a gateway invoking the agent described by cfg.
func NewProcessGateway(cfg config.AgentConfig) *ProcessGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &ProcessGateway{cfg: cfg}
}

// Mode implements Gateway.
func (*ProcessGateway) Mode() string {
	return "process"
}

// Query implements Gateway. The child process is not tied to the caller's
// cancellation; only the configured timeout stops it.
func (g *ProcessGateway) Query(ctx context.Context, req Request) Result {
	start := time.Now()
	result := g.run(ctx, req.Query)
	result.Timeout = g.cfg.Timeout
	result.Duration = time.Since(start)
	return result
}

func (g *ProcessGateway) run(ctx context.Context, query string) Result {
	artifact, err := g.writeQuerySet(query)
	if err != nil {
		return Result{Outcome: OutcomeInvocationFailed, Err: err}
	}
	defer removeArtifact(artifact)

	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, g.cfg.Python,
		g.cfg.CLIPath(),
		"--query-set", artifact,
		"--copilot", g.cfg.Copilot,
		"--prometheus-config", g.cfg.PrometheusConfigPath(),
	)
	cmd.Dir = g.cfg.Path
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	// Check for timeout first
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return Result{Outcome: OutcomeTimedOut, Output: stdout.String(), Stderr: stderr.String(), ExitCode: -1, Err: execCtx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Outcome: OutcomeNonZeroExit, Output: stdout.String(), Stderr: stderr.String(), ExitCode: exitErr.ExitCode(), Err: err}
	}
	if err != nil {
		return Result{Outcome: OutcomeInvocationFailed, Err: err}
	}

	if stdout.Len() == 0 {
		return Result{Outcome: OutcomeNoOutput, Stderr: stderr.String()}
	}
	return Result{Outcome: OutcomeSuccess, Output: stdout.String(), Stderr: stderr.String()}
}

// writeQuerySet stores the query as a temp YAML artifact and returns its
// absolute path.
func (g *ProcessGateway) writeQuerySet(query string) (string, error) {
	suffix, err := gonanoid.Generate(artifactAlphabet, 8)
	if err != nil {
		return "", fmt.Errorf("failed to name query file: %w", err)
	}

	data, err := yaml.Marshal(querySet{Queries: []string{query}})
	if err != nil {
		return "", fmt.Errorf("failed to encode query file: %w", err)
	}

	path, err := filepath.Abs(filepath.Join(g.cfg.TempDir, fmt.Sprintf("temp_query_%s.yaml", suffix)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve query file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write query file: %w", err)
	}
	return path, nil
}

func removeArtifact(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove query file")
	}
}
