package protocol

import (
	"fmt"
	"strings"
)

// TranslateRequest builds the outbound O-API request from a downstream
// A-API request, given the already-routed upstream model name.
func TranslateRequest(req *AnthropicRequest, upstreamModel string) (*OpenAIRequest, error) {
	out := &OpenAIRequest{
		Model:       upstreamModel,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.StopSequences,
	}

	var messages []OpenAIMessage

	if systemText, ok := decodeSystemPrompt(req.System); ok && systemText != "" {
		messages = append(messages, OpenAIMessage{Role: "system", Content: systemText})
	}

	for _, msg := range req.Messages {
		translated, err := translateMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("translate message with role %q: %w", msg.Role, err)
		}

		messages = append(messages, translated...)
	}

	out.Messages = messages

	if len(req.Tools) > 0 {
		tools := make([]OpenAITool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, OpenAITool{
				Type: "function",
				Function: OpenAIFunctionDef{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.InputSchema,
				},
			})
		}

		out.Tools = tools
	}

	return out, nil
}

// decodeSystemPrompt normalizes the system field, which may be a bare
// string or an array of text content blocks, into a single joined string.
func decodeSystemPrompt(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var asString string
	if err := jsonx.Unmarshal(raw, &asString); err == nil {
		return asString, true
	}

	var blocks []ContentBlock
	if err := jsonx.Unmarshal(raw, &blocks); err != nil {
		return "", false
	}

	var sb strings.Builder
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}

		sb.WriteString(b.Text)
	}

	return sb.String(), true
}

// translateMessage expands one downstream message into zero or more
// upstream messages. A user message carrying tool_result blocks expands
// into one "tool" message per result; an assistant message carrying
// tool_use blocks collapses its text and tool calls into a single message
// with both content and tool_calls populated.
func translateMessage(msg AnthropicMessage) ([]OpenAIMessage, error) {
	if asString, ok := decodeBareString(msg.Content); ok {
		return []OpenAIMessage{{Role: msg.Role, Content: asString}}, nil
	}

	var blocks []ContentBlock
	if err := jsonx.Unmarshal(msg.Content, &blocks); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}

	if msg.Role == "assistant" {
		return []OpenAIMessage{translateAssistantMessage(blocks)}, nil
	}

	return translateUserMessage(blocks)
}

func decodeBareString(raw []byte) (string, bool) {
	var s string
	if err := jsonx.Unmarshal(raw, &s); err != nil {
		return "", false
	}

	return s, true
}

// translateUserMessage splits a user turn's content blocks into a leading
// multimodal user message (text and image blocks) followed by one tool
// message per tool_result block, preserving source order of the results.
func translateUserMessage(blocks []ContentBlock) ([]OpenAIMessage, error) {
	var parts []OpenAIContentPart

	var out []OpenAIMessage

	for _, b := range blocks {
		switch b.Type {
		case "text":
			parts = append(parts, OpenAIContentPart{Type: "text", Text: b.Text})
		case "image":
			if b.Source == nil {
				return nil, fmt.Errorf("image block has no source")
			}

			if b.Source.Type != "base64" {
				return nil, fmt.Errorf("unsupported image source type %q", b.Source.Type)
			}

			parts = append(parts, OpenAIContentPart{
				Type: "image_url",
				ImageURL: &OpenAIImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", b.Source.MediaType, b.Source.Data),
				},
			})
		case "tool_result":
			text, err := decodeToolResultContent(b.Content)
			if err != nil {
				return nil, fmt.Errorf("decode tool_result content for %s: %w", b.ToolUseID, err)
			}

			out = append(out, OpenAIMessage{
				Role:       "tool",
				Content:    text,
				ToolCallID: convertToolUseIDToCallID(b.ToolUseID),
			})
		}
	}

	if len(parts) > 0 {
		userMsg := OpenAIMessage{Role: "user"}
		if len(parts) == 1 && parts[0].Type == "text" {
			userMsg.Content = parts[0].Text
		} else {
			userMsg.Content = parts
		}

		out = append([]OpenAIMessage{userMsg}, out...)
	}

	return out, nil
}

// decodeToolResultContent normalizes a tool_result's content, which may be
// a bare string or an array of content blocks, into a single string.
func decodeToolResultContent(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	if s, ok := decodeBareString(raw); ok {
		return s, nil
	}

	var blocks []ContentBlock
	if err := jsonx.Unmarshal(raw, &blocks); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}

		sb.WriteString(b.Text)
	}

	return sb.String(), nil
}

func translateAssistantMessage(blocks []ContentBlock) OpenAIMessage {
	out := OpenAIMessage{Role: "assistant"}

	var text strings.Builder

	var toolCalls []OpenAIToolCall

	for _, b := range blocks {
		switch b.Type {
		case "text":
			text.WriteString(b.Text)
		case "tool_use":
			toolCalls = append(toolCalls, OpenAIToolCall{
				ID:   convertToolUseIDToCallID(b.ID),
				Type: "function",
				Function: OpenAIFunctionCall{
					Name:      b.Name,
					Arguments: string(b.Input),
				},
			})
		}
	}

	out.Content = text.String()
	out.ToolCalls = toolCalls

	return out
}

// convertToolUseIDToCallID rewrites a downstream toolu_ identifier to the
// call_ prefix upstream tool-message correlation expects.
func convertToolUseIDToCallID(id string) string {
	return strings.Replace(id, "toolu_", "call_", 1)
}

// convertCallIDToToolUseID is the inverse of convertToolUseIDToCallID, used
// by the response translators to hand IDs back in downstream shape.
func convertCallIDToToolUseID(id string) string {
	return strings.Replace(id, "call_", "toolu_", 1)
}
