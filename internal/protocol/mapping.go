package protocol

// stopReasonMapping translates an upstream finish_reason into the
// downstream stop_reason vocabulary.
var stopReasonMapping = map[string]string{
	"stop":           "end_turn",
	"length":         "max_tokens",
	"tool_calls":     "tool_use",
	"function_call":  "tool_use",
	"content_filter": "end_turn",
}

// ConvertFinishReason maps an upstream finish_reason to a downstream
// stop_reason, defaulting to "end_turn" for anything unrecognized.
func ConvertFinishReason(finishReason string) string {
	if mapped, ok := stopReasonMapping[finishReason]; ok {
		return mapped
	}

	return "end_turn"
}

// reasoningText normalizes a reasoning/reasoning_content delta, which some
// upstreams emit as a bare string and others as an object carrying a text
// field, into a plain string.
func reasoningText(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	if s, ok := decodeBareString(raw); ok {
		return s
	}

	var obj struct {
		Text string `json:"text"`
	}

	if err := jsonx.Unmarshal(raw, &obj); err == nil {
		return obj.Text
	}

	return ""
}
