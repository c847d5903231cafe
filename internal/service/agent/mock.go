package agent

import (
	"context"
	"fmt"
)

const mockTemplate = "**Mock Response**\n\nThis is a simulated response to: '%s'\n\n" +
	"To enable real agent integration:\n" +
	"1. Clone https://github.com/rohithvaidya/ts-ai-agent (dev branch)\n" +
	"2. Set TS_AGENT_PATH environment variable to the repository path\n" +
	"3. Set USE_REAL_AGENT=true\n" +
	"4. Configure Prometheus and Ollama as per the repository README"

// MockGateway echoes the query in a fixed template.
type MockGateway struct{}

// NewMockGateway returns the default gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Mode implements Gateway.
func (*MockGateway) Mode() string {
	return "mock"
}

// Query implements Gateway.
func (*MockGateway) Query(_ context.Context, req Request) Result {
	return Result{
		Outcome: OutcomeReply,
		Output:  fmt.Sprintf(mockTemplate, req.Query),
	}
}
