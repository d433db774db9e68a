package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabEventsSubject(t *testing.T) {
	assert.Equal(t, "lens.tabs.42.events", TabEventsSubject(42))
	assert.Equal(t, "lens.tabs.0.events", TabEventsSubject(0))
}
