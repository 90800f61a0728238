// Package protocol implements the bidirectional translation engine between
// the A-API (Anthropic Messages) wire shape and the O-API (OpenAI Chat
// Completions) wire shape: request translation, non-streaming response
// translation, and the streaming re-framing transducer.
package protocol

import jsoniter "github.com/json-iterator/go"

// ---- A-API (downstream-facing) types ----

// AnthropicRequest is the downstream request shape accepted on
// POST /v1/messages.
type AnthropicRequest struct {
	Model         string              `json:"model"`
	MaxTokens     int                 `json:"max_tokens"`
	Stream        bool                `json:"stream"`
	System        jsoniter.RawMessage `json:"system,omitempty"`
	Messages      []AnthropicMessage  `json:"messages"`
	Tools         []AnthropicTool     `json:"tools,omitempty"`
	Temperature   *float64            `json:"temperature,omitempty"`
	TopP          *float64            `json:"top_p,omitempty"`
	TopK          *float64            `json:"top_k,omitempty"`
	StopSequences []string            `json:"stop_sequences,omitempty"`
	Thinking      jsoniter.RawMessage `json:"thinking,omitempty"`
}

// ThinkingRequested reports whether the thinking field was present at all;
// its value is irrelevant, only its presence matters.
func (r *AnthropicRequest) ThinkingRequested() bool {
	return len(r.Thinking) > 0
}

// AnthropicMessage is one entry of the downstream messages array. Content
// may be a bare string or a ContentBlock array; both are kept as raw JSON
// and normalized by translateMessage.
type AnthropicMessage struct {
	Role    string              `json:"role"`
	Content jsoniter.RawMessage `json:"content"`
}

// AnthropicTool is one downstream tool definition.
type AnthropicTool struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	InputSchema jsoniter.RawMessage `json:"input_schema"`
}

// ContentBlock models the closed sum type {text, image, tool_use,
// tool_result, thinking} described in the data model. Only the fields valid
// for Type are populated; callers must switch on Type, never assume field
// co-occurrence.
type ContentBlock struct {
	Type string `json:"type"`

	// text, thinking
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ID    string              `json:"id,omitempty"`
	Name  string              `json:"name,omitempty"`
	Input jsoniter.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string              `json:"tool_use_id,omitempty"`
	Content   jsoniter.RawMessage `json:"content,omitempty"`
	IsError   *bool               `json:"is_error,omitempty"`
}

// ImageSource is the base64-embedded image payload of an image ContentBlock.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// AnthropicResponse is the non-streaming downstream response shape.
type AnthropicResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   string         `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Usage is the A-API token accounting shape.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ErrorEnvelope is the A-API error JSON shape.
type ErrorEnvelope struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error kind/message pair.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ---- O-API (upstream-facing) types ----

// OpenAIRequest is the outbound request built by the Request Translator.
type OpenAIRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
	Messages    []OpenAIMessage `json:"messages"`
	Tools       []OpenAITool    `json:"tools,omitempty"`
}

// OpenAIMessage is one entry of the outbound messages array.
type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    any              `json:"content,omitempty"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

// OpenAIContentPart is one element of a multimodal message's content array.
type OpenAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *OpenAIImageURL `json:"image_url,omitempty"`
}

// OpenAIImageURL wraps a data: URL image reference.
type OpenAIImageURL struct {
	URL string `json:"url"`
}

// OpenAIToolCall is a fully-formed (non-streaming) tool call.
type OpenAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

// OpenAIFunctionCall is the name/arguments pair of a tool call.
type OpenAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAITool is one outbound tool definition.
type OpenAITool struct {
	Type     string            `json:"type"`
	Function OpenAIFunctionDef `json:"function"`
}

// OpenAIFunctionDef is the body of an OpenAITool.
type OpenAIFunctionDef struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Parameters  jsoniter.RawMessage `json:"parameters,omitempty"`
}

// OpenAIResponse is the non-streaming upstream response shape.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   *OpenAIUsage   `json:"usage,omitempty"`
}

// OpenAIChoice is one entry of a non-streaming response's choices array.
type OpenAIChoice struct {
	Message      *OpenAIRespMessage `json:"message,omitempty"`
	FinishReason *string            `json:"finish_reason,omitempty"`
}

// OpenAIRespMessage is the assistant message of a non-streaming choice.
type OpenAIRespMessage struct {
	Role             string              `json:"role"`
	Content          *string             `json:"content,omitempty"`
	Reasoning        jsoniter.RawMessage `json:"reasoning,omitempty"`
	ReasoningContent jsoniter.RawMessage `json:"reasoning_content,omitempty"`
	ToolCalls        []OpenAIToolCall    `json:"tool_calls,omitempty"`
}

// OpenAIUsage is the upstream token accounting shape.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// OpenAIStreamChunk is one SSE data frame of an upstream streaming response.
type OpenAIStreamChunk struct {
	ID      string               `json:"id,omitempty"`
	Model   string               `json:"model,omitempty"`
	Choices []OpenAIStreamChoice `json:"choices,omitempty"`
	Usage   *OpenAIUsage         `json:"usage,omitempty"`
}

// OpenAIStreamChoice is one choice of a streaming chunk.
type OpenAIStreamChoice struct {
	Delta        OpenAIDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason,omitempty"`
}

// OpenAIDelta is the incremental content of a streaming choice.
type OpenAIDelta struct {
	Content          string                `json:"content,omitempty"`
	Reasoning        jsoniter.RawMessage   `json:"reasoning,omitempty"`
	ReasoningContent jsoniter.RawMessage   `json:"reasoning_content,omitempty"`
	ToolCalls        []OpenAIToolCallDelta `json:"tool_calls,omitempty"`
}

// OpenAIToolCallDelta is one tool-call fragment keyed by ordinal.
type OpenAIToolCallDelta struct {
	Index    int                  `json:"index"`
	ID       string               `json:"id,omitempty"`
	Function *OpenAIFunctionDelta `json:"function,omitempty"`
}

// OpenAIFunctionDelta is the incremental name/arguments of a tool call.
type OpenAIFunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}
