package protocol

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// openBlockKind enumerates the four states a StreamSession's single open
// content block can be in. Zero value is openBlockNone.
type openBlockKind int

const (
	openBlockNone openBlockKind = iota
	openBlockText
	openBlockThinking
	openBlockToolUse
)

// openBlock tracks the one content block currently accepting deltas. Only
// one block is ever open at a time; switching kinds (or switching to a
// different tool call ordinal) always closes the previous block first.
type openBlock struct {
	kind        openBlockKind
	index       int
	toolOrdinal int
}

// toolCallFragment accumulates one upstream tool-call ordinal's id, name
// and argument fragments until enough is known to open its content block.
type toolCallFragment struct {
	blockIndex   int
	id           string
	name         string
	argsBuffered string
	opened       bool
}

// maxBufferedToolArgs bounds how much argument text a not-yet-opened tool
// call fragment may accumulate before it is dropped; guards against a
// malformed upstream that never sends a name for an ordinal.
const maxBufferedToolArgs = 1 << 20

// StreamSession is the stateful transducer driving one SSE streaming
// translation from O-API chunks to A-API events. It is not safe for
// concurrent use; callers serialize calls to ProcessChunk per connection.
type StreamSession struct {
	requestedModel   string
	messageID        string
	model            string
	messageStartSent bool

	open openBlock

	nextIndex int

	tools map[int]*toolCallFragment

	inputTokens  int
	outputTokens int

	closed bool
}

// NewStreamSession creates a session for one downstream streaming request.
// requestedModel is echoed back in message_start regardless of which model
// actually served the request upstream.
func NewStreamSession(requestedModel string) *StreamSession {
	return &StreamSession{
		requestedModel: requestedModel,
		open:           openBlock{kind: openBlockNone},
		tools:          make(map[int]*toolCallFragment),
	}
}

// ProcessChunk consumes one upstream SSE data frame's JSON payload and
// returns zero or more downstream SSE frames. An empty return with a nil
// error means the chunk carried no externally visible change.
func (s *StreamSession) ProcessChunk(data []byte) ([]byte, error) {
	if s.closed {
		return nil, nil
	}

	var chunk OpenAIStreamChunk
	if err := jsonx.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("decode upstream chunk: %w", err)
	}

	if chunk.ID != "" && s.messageID == "" {
		s.messageID = chunk.ID
	}

	if chunk.Model != "" && s.model == "" {
		s.model = chunk.Model
	}

	if chunk.Usage != nil {
		s.inputTokens = chunk.Usage.PromptTokens
		s.outputTokens = chunk.Usage.CompletionTokens
	}

	var out []byte

	if len(chunk.Choices) == 0 {
		return out, nil
	}

	choice := chunk.Choices[0]

	out = append(out, s.ensureMessageStart()...)

	thinking := firstNonEmpty(reasoningText(choice.Delta.Reasoning), reasoningText(choice.Delta.ReasoningContent))
	if thinking != "" {
		out = append(out, s.emitThinkingDelta(thinking)...)
	}

	if choice.Delta.Content != "" {
		out = append(out, s.emitTextDelta(choice.Delta.Content)...)
	}

	for _, tc := range choice.Delta.ToolCalls {
		out = append(out, s.emitToolCallDelta(tc)...)
	}

	if choice.FinishReason != nil {
		out = append(out, s.finish(*choice.FinishReason)...)
	}

	return out, nil
}

// Abort closes out the session when the upstream connection fails or is
// canceled mid-stream, emitting whatever close events are still owed so
// the downstream client sees a well-formed, if truncated, event sequence.
func (s *StreamSession) Abort() []byte {
	if s.closed {
		return nil
	}

	return s.finish("error")
}

// Complete closes out the session on upstream [DONE], which some
// O-API-compatible upstreams send without ever including a finish_reason
// in a prior chunk. It is a no-op if a finish_reason already closed the
// session, so the ordinary path emits message_delta/message_stop exactly
// once regardless of which trigger fires first.
func (s *StreamSession) Complete() []byte {
	if s.closed {
		return nil
	}

	return s.finish("stop")
}

func (s *StreamSession) ensureMessageStart() []byte {
	if s.messageStartSent {
		return nil
	}

	s.messageStartSent = true

	id := s.messageID
	if id == "" {
		id = "msg_" + uuid.NewString()
	}

	return formatSSEEvent("message_start", messageStartPayload{
		Type: "message_start",
		Message: anthropicStartEnvelope{
			ID:      id,
			Type:    "message",
			Role:    "assistant",
			Model:   s.requestedModel,
			Content: []ContentBlock{},
			Usage:   Usage{InputTokens: s.inputTokens, OutputTokens: 0},
		},
	})
}

// closeOpenBlock emits content_block_stop for whatever block is currently
// open, if any, and resets state to openBlockNone.
func (s *StreamSession) closeOpenBlock() []byte {
	if s.open.kind == openBlockNone {
		return nil
	}

	index := s.open.index
	s.open = openBlock{kind: openBlockNone}

	return formatSSEEvent("content_block_stop", contentBlockStopPayload{
		Type:  "content_block_stop",
		Index: index,
	})
}

func (s *StreamSession) emitTextDelta(text string) []byte {
	var out []byte

	if s.open.kind != openBlockText {
		out = append(out, s.closeOpenBlock()...)

		index := s.nextIndex
		s.nextIndex++
		s.open = openBlock{kind: openBlockText, index: index}

		out = append(out, formatSSEEvent("content_block_start", contentBlockStartPayload{
			Type:         "content_block_start",
			Index:        index,
			ContentBlock: ContentBlock{Type: "text", Text: ""},
		})...)
	}

	out = append(out, formatSSEEvent("content_block_delta", contentBlockDeltaPayload{
		Type:  "content_block_delta",
		Index: s.open.index,
		Delta: deltaField{Type: "text_delta", Text: text},
	})...)

	return out
}

func (s *StreamSession) emitThinkingDelta(text string) []byte {
	var out []byte

	if s.open.kind != openBlockThinking {
		out = append(out, s.closeOpenBlock()...)

		index := s.nextIndex
		s.nextIndex++
		s.open = openBlock{kind: openBlockThinking, index: index}

		out = append(out, formatSSEEvent("content_block_start", contentBlockStartPayload{
			Type:         "content_block_start",
			Index:        index,
			ContentBlock: ContentBlock{Type: "thinking", Thinking: ""},
		})...)
	}

	out = append(out, formatSSEEvent("content_block_delta", contentBlockDeltaPayload{
		Type:  "content_block_delta",
		Index: s.open.index,
		Delta: deltaField{Type: "thinking_delta", Thinking: text},
	})...)

	return out
}

func (s *StreamSession) fragmentFor(ordinal int) *toolCallFragment {
	f, ok := s.tools[ordinal]
	if !ok {
		f = &toolCallFragment{blockIndex: -1}
		s.tools[ordinal] = f
	}

	return f
}

// emitToolCallDelta folds one tool-call fragment into its accumulator,
// opening the block once a name is known (deferring until then, since
// upstreams may send the name on a later fragment; the upstream id is used
// if one has arrived, otherwise a toolu_ id is synthesized) and flushing
// the fragment's argument text as input_json_delta frames.
func (s *StreamSession) emitToolCallDelta(tc OpenAIToolCallDelta) []byte {
	var out []byte

	f := s.fragmentFor(tc.Index)

	if tc.ID != "" {
		f.id = tc.ID
	}

	if tc.Function != nil {
		if tc.Function.Name != "" {
			f.name = tc.Function.Name
		}

		if tc.Function.Arguments != "" {
			if !f.opened {
				if len(f.argsBuffered)+len(tc.Function.Arguments) > maxBufferedToolArgs {
					return out
				}

				f.argsBuffered += tc.Function.Arguments
			} else {
				out = append(out, s.flushToolArgs(f, tc.Function.Arguments)...)
			}
		}
	}

	if !f.opened && f.name != "" {
		if f.id == "" {
			f.id = "toolu_" + uuid.NewString()
		}

		if s.open.kind != openBlockToolUse || s.open.toolOrdinal != tc.Index {
			out = append(out, s.closeOpenBlock()...)

			index := s.nextIndex
			s.nextIndex++
			f.blockIndex = index
			s.open = openBlock{kind: openBlockToolUse, index: index, toolOrdinal: tc.Index}
		}

		f.opened = true

		out = append(out, formatSSEEvent("content_block_start", contentBlockStartPayload{
			Type:  "content_block_start",
			Index: f.blockIndex,
			ContentBlock: ContentBlock{
				Type: "tool_use",
				ID:   convertCallIDToToolUseID(f.id),
				Name: f.name,
			},
		})...)

		if f.argsBuffered != "" {
			buffered := f.argsBuffered
			f.argsBuffered = ""
			out = append(out, s.flushToolArgs(f, buffered)...)
		}
	}

	return out
}

func (s *StreamSession) flushToolArgs(f *toolCallFragment, partial string) []byte {
	if partial == "" {
		return nil
	}

	return formatSSEEvent("content_block_delta", contentBlockDeltaPayload{
		Type:  "content_block_delta",
		Index: f.blockIndex,
		Delta: deltaField{Type: "input_json_delta", PartialJSON: partial},
	})
}

// finish closes whatever block is open, emits message_delta carrying the
// mapped stop reason and final usage, then message_stop, and marks the
// session closed so further chunks are ignored. Buffered fragments of tool
// calls that never received a name are discarded with a logged warning.
func (s *StreamSession) finish(finishReason string) []byte {
	var out []byte

	for ordinal, f := range s.tools {
		if !f.opened {
			slog.Warn("discarding tool call fragments that never received a name", "ordinal", ordinal)
		}
	}

	out = append(out, s.closeOpenBlock()...)

	stopReason := ConvertFinishReason(finishReason)

	out = append(out, formatSSEEvent("message_delta", messageDeltaPayload{
		Type:  "message_delta",
		Delta: messageDeltaBody{StopReason: &stopReason},
		Usage: &Usage{InputTokens: s.inputTokens, OutputTokens: s.outputTokens},
	})...)

	out = append(out, formatSSEEvent("message_stop", messageStopPayload{Type: "message_stop"})...)

	s.closed = true

	return out
}
