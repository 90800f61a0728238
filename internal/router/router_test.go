package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_ThinkingWithReasoningOverride(t *testing.T) {
	assert.Equal(t, "r", Route("m", true, "r", "c"))
}

func TestRoute_NoThinkingWithCompletionOverride(t *testing.T) {
	assert.Equal(t, "c", Route("m", false, "r", "c"))
}

func TestRoute_NoOverridesConfigured(t *testing.T) {
	assert.Equal(t, "m", Route("m", true, "", ""))
	assert.Equal(t, "m", Route("m", false, "", ""))
}

func TestRoute_ThinkingButNoReasoningOverrideFallsThroughToModel(t *testing.T) {
	assert.Equal(t, "m", Route("m", true, "", "c"))
}

func TestRoute_IsDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, "c", Route("m", false, "r", "c"))
	}
}
