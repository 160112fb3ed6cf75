package tasks_tools

import (
	"context"
	"reflect"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/upstream"
)

func TestSplitLabels(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single label",
			input:    "work",
			expected: []string{"work"},
		},
		{
			name:     "multiple labels with spaces",
			input:    "work, urgent , review",
			expected: []string{"work", "urgent", "review"},
		},
		{
			name:     "trailing comma",
			input:    "work,",
			expected: []string{"work"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLabels(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("splitLabels(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRegisterTasksTools(t *testing.T) {
	sc := server.NewServerContext(context.Background(), upstream.NewStaticTokenProvider())
	defer func() { _ = sc.Shutdown() }()

	s := mcpserver.NewMCPServer("test", "0.0.1")
	if err := RegisterTasksTools(s, sc, false); err != nil {
		t.Fatalf("failed to register task tools: %v", err)
	}
}

func TestRegisterTasksToolsReadOnly(t *testing.T) {
	sc := server.NewServerContext(context.Background(), upstream.NewStaticTokenProvider())
	defer func() { _ = sc.Shutdown() }()

	s := mcpserver.NewMCPServer("test-readonly", "0.0.1")
	if err := RegisterTasksTools(s, sc, true); err != nil {
		t.Fatalf("failed to register read-only task tools: %v", err)
	}
}
