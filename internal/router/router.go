// Package router implements the model routing decision: a pure,
// referentially transparent mapping from a requested model plus
// thinking-flag and configured overrides to the effective upstream model.
package router

// Route selects the upstream model name. If thinking is requested and a
// reasoning override is configured, that override wins; if thinking is not
// requested and a completion override is configured, that override wins;
// otherwise the caller's requested model passes through unchanged.
func Route(requestedModel string, thinkingRequested bool, reasoningModel, completionModel string) string {
	if thinkingRequested && reasoningModel != "" {
		return reasoningModel
	}

	if !thinkingRequested && completionModel != "" {
		return completionModel
	}

	return requestedModel
}
