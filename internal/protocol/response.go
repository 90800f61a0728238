package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

// TranslateResponse converts a complete, non-streaming upstream response
// into the downstream response shape. Content blocks are emitted in a
// fixed order: a thinking block first if reasoning text was present,
// followed by a text block if any, followed by one tool_use block per
// tool call, in upstream order.
func TranslateResponse(resp *OpenAIResponse, requestedModel string) (*AnthropicResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("upstream response carried no choices")
	}

	choice := resp.Choices[0]
	if choice.Message == nil {
		return nil, fmt.Errorf("upstream choice carried no message")
	}

	id := resp.ID
	if id == "" {
		id = "msg_" + uuid.NewString()
	}

	out := &AnthropicResponse{
		ID:    id,
		Type:  "message",
		Role:  "assistant",
		Model: requestedModel,
	}

	content, err := convertAssistantContent(choice.Message)
	if err != nil {
		return nil, err
	}

	out.Content = content

	if choice.FinishReason != nil {
		out.StopReason = ConvertFinishReason(*choice.FinishReason)
	} else {
		out.StopReason = "end_turn"
	}

	if resp.Usage != nil {
		out.Usage = Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	return out, nil
}

// convertAssistantContent builds the downstream content block array from
// one upstream assistant message.
func convertAssistantContent(message *OpenAIRespMessage) ([]ContentBlock, error) {
	var blocks []ContentBlock

	if thinking := firstNonEmpty(reasoningText(message.Reasoning), reasoningText(message.ReasoningContent)); thinking != "" {
		blocks = append(blocks, ContentBlock{Type: "thinking", Thinking: thinking})
	}

	if message.Content != nil && *message.Content != "" {
		blocks = append(blocks, ContentBlock{Type: "text", Text: *message.Content})
	}

	for _, call := range message.ToolCalls {
		input := call.Function.Arguments
		if input == "" {
			input = "{}"
		}

		blocks = append(blocks, ContentBlock{
			Type:  "tool_use",
			ID:    convertCallIDToToolUseID(call.ID),
			Name:  call.Function.Name,
			Input: []byte(input),
		})
	}

	if len(blocks) == 0 {
		blocks = append(blocks, ContentBlock{Type: "text", Text: ""})
	}

	return blocks, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
