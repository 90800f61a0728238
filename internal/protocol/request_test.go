package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateRequest_SystemStringPrepended(t *testing.T) {
	req := &AnthropicRequest{
		Model:     "claude-3",
		MaxTokens: 100,
		System:    []byte(`"be helpful"`),
		Messages: []AnthropicMessage{
			{Role: "user", Content: []byte(`"hi"`)},
		},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, "be helpful", out.Messages[0].Content)
	assert.Equal(t, "user", out.Messages[1].Role)
	assert.Equal(t, "hi", out.Messages[1].Content)
	assert.Equal(t, "gpt-4o", out.Model)
}

func TestTranslateRequest_SystemBlocksJoined(t *testing.T) {
	req := &AnthropicRequest{
		Model:  "claude-3",
		System: []byte(`[{"type":"text","text":"a"},{"type":"text","text":"b"}]`),
		Messages: []AnthropicMessage{
			{Role: "user", Content: []byte(`"hi"`)},
		},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, "a\n\nb", out.Messages[0].Content)
}

func TestTranslateRequest_AssistantToolUseBecomesToolCalls(t *testing.T) {
	req := &AnthropicRequest{
		Model: "claude-3",
		Messages: []AnthropicMessage{
			{Role: "assistant", Content: []byte(`[
				{"type":"text","text":"checking"},
				{"type":"tool_use","id":"toolu_abc","name":"lookup","input":{"q":"x"}}
			]`)},
		},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	require.Len(t, out.Messages, 1)
	msg := out.Messages[0]
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "checking", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_abc", msg.ToolCalls[0].ID)
	assert.Equal(t, "lookup", msg.ToolCalls[0].Function.Name)
}

func TestTranslateRequest_ToolResultBecomesToolMessage(t *testing.T) {
	req := &AnthropicRequest{
		Model: "claude-3",
		Messages: []AnthropicMessage{
			{Role: "user", Content: []byte(`[
				{"type":"tool_result","tool_use_id":"toolu_abc","content":"42"}
			]`)},
		},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	require.Len(t, out.Messages, 1)
	assert.Equal(t, "tool", out.Messages[0].Role)
	assert.Equal(t, "call_abc", out.Messages[0].ToolCallID)
	assert.Equal(t, "42", out.Messages[0].Content)
}

func TestTranslateRequest_MixedUserContentAndToolResult(t *testing.T) {
	req := &AnthropicRequest{
		Model: "claude-3",
		Messages: []AnthropicMessage{
			{Role: "user", Content: []byte(`[
				{"type":"text","text":"here you go"},
				{"type":"tool_result","tool_use_id":"toolu_1","content":"ok"}
			]`)},
		},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	require.Len(t, out.Messages, 2)
	assert.Equal(t, "user", out.Messages[0].Role)
	assert.Equal(t, "tool", out.Messages[1].Role)
}

func TestTranslateRequest_ToolsTranslated(t *testing.T) {
	req := &AnthropicRequest{
		Model: "claude-3",
		Tools: []AnthropicTool{
			{Name: "lookup", Description: "look things up", InputSchema: []byte(`{"type":"object"}`)},
		},
		Messages: []AnthropicMessage{{Role: "user", Content: []byte(`"hi"`)}},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	require.Len(t, out.Tools, 1)
	assert.Equal(t, "function", out.Tools[0].Type)
	assert.Equal(t, "lookup", out.Tools[0].Function.Name)
}

func TestTranslateRequest_StopSequencesMappedToStop(t *testing.T) {
	req := &AnthropicRequest{
		Model:         "claude-3",
		StopSequences: []string{"STOP"},
		Messages:      []AnthropicMessage{{Role: "user", Content: []byte(`"hi"`)}},
	}

	out, err := TranslateRequest(req, "gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, []string{"STOP"}, out.Stop)
}
