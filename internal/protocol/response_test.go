package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTranslateResponse_TextOnly(t *testing.T) {
	resp := &OpenAIResponse{
		ID:    "chatcmpl-1",
		Model: "gpt-4o",
		Choices: []OpenAIChoice{
			{
				Message:      &OpenAIRespMessage{Role: "assistant", Content: strPtr("hello there")},
				FinishReason: strPtr("stop"),
			},
		},
		Usage: &OpenAIUsage{PromptTokens: 10, CompletionTokens: 3},
	}

	out, err := TranslateResponse(resp, "claude-3")
	require.NoError(t, err)

	assert.Equal(t, "message", out.Type)
	assert.Equal(t, "assistant", out.Role)
	assert.Equal(t, "claude-3", out.Model)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "text", out.Content[0].Type)
	assert.Equal(t, "hello there", out.Content[0].Text)
	assert.Equal(t, "end_turn", out.StopReason)
	assert.Equal(t, 10, out.Usage.InputTokens)
	assert.Equal(t, 3, out.Usage.OutputTokens)
}

func TestTranslateResponse_ToolCallsBecomeToolUseBlocks(t *testing.T) {
	resp := &OpenAIResponse{
		ID: "chatcmpl-2",
		Choices: []OpenAIChoice{
			{
				Message: &OpenAIRespMessage{
					Role: "assistant",
					ToolCalls: []OpenAIToolCall{
						{ID: "call_1", Type: "function", Function: OpenAIFunctionCall{Name: "lookup", Arguments: `{"q":"x"}`}},
					},
				},
				FinishReason: strPtr("tool_calls"),
			},
		},
	}

	out, err := TranslateResponse(resp, "claude-3")
	require.NoError(t, err)

	require.Len(t, out.Content, 1)
	assert.Equal(t, "tool_use", out.Content[0].Type)
	assert.Equal(t, "toolu_1", out.Content[0].ID)
	assert.Equal(t, "lookup", out.Content[0].Name)
	assert.JSONEq(t, `{"q":"x"}`, string(out.Content[0].Input))
	assert.Equal(t, "tool_use", out.StopReason)
}

func TestTranslateResponse_ReasoningBecomesThinkingBlockFirst(t *testing.T) {
	resp := &OpenAIResponse{
		ID: "chatcmpl-3",
		Choices: []OpenAIChoice{
			{
				Message: &OpenAIRespMessage{
					Role:      "assistant",
					Reasoning: []byte(`"thinking it through"`),
					Content:   strPtr("the answer"),
				},
				FinishReason: strPtr("stop"),
			},
		},
	}

	out, err := TranslateResponse(resp, "claude-3")
	require.NoError(t, err)

	require.Len(t, out.Content, 2)
	assert.Equal(t, "thinking", out.Content[0].Type)
	assert.Equal(t, "thinking it through", out.Content[0].Thinking)
	assert.Equal(t, "text", out.Content[1].Type)
}

func TestTranslateResponse_NoChoicesIsError(t *testing.T) {
	_, err := TranslateResponse(&OpenAIResponse{}, "claude-3")
	assert.Error(t, err)
}

func TestTranslateResponse_EmptyContentFallsBackToEmptyTextBlock(t *testing.T) {
	resp := &OpenAIResponse{
		Choices: []OpenAIChoice{{Message: &OpenAIRespMessage{Role: "assistant"}}},
	}

	out, err := TranslateResponse(resp, "claude-3")
	require.NoError(t, err)

	require.Len(t, out.Content, 1)
	assert.Equal(t, "text", out.Content[0].Type)
	assert.Equal(t, "", out.Content[0].Text)
}
