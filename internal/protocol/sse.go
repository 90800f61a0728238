package protocol

import "fmt"

// formatSSEEvent renders one named SSE frame: an "event:" line naming the
// downstream event type, a "data:" line carrying its JSON payload, and the
// blank line terminating the frame.
func formatSSEEvent(eventType string, payload any) []byte {
	body, err := jsonx.Marshal(payload)
	if err != nil {
		body = []byte(`{}`)
	}

	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, body))
}

// PingEvent renders the keepalive ping frame. The streaming handler does not
// send it; no pings are emitted while an upstream stream is quiet.
func PingEvent() []byte {
	return formatSSEEvent("ping", map[string]string{"type": "ping"})
}

type messageStartPayload struct {
	Type    string                 `json:"type"`
	Message anthropicStartEnvelope `json:"message"`
}

type anthropicStartEnvelope struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []ContentBlock `json:"content"`
	StopReason   *string        `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

type contentBlockStartPayload struct {
	Type         string       `json:"type"`
	Index        int          `json:"index"`
	ContentBlock ContentBlock `json:"content_block"`
}

type contentBlockDeltaPayload struct {
	Type  string     `json:"type"`
	Index int        `json:"index"`
	Delta deltaField `json:"delta"`
}

type deltaField struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

type contentBlockStopPayload struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type messageDeltaPayload struct {
	Type  string           `json:"type"`
	Delta messageDeltaBody `json:"delta"`
	Usage *Usage           `json:"usage,omitempty"`
}

type messageDeltaBody struct {
	StopReason   *string `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
}

type messageStopPayload struct {
	Type string `json:"type"`
}
