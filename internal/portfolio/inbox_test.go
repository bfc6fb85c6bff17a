package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAfterView(t *testing.T) {
	assert.Equal(t, MessageRead, StatusAfterView(MessagePending))
	assert.Equal(t, MessageRead, StatusAfterView(MessageRead))
	assert.Equal(t, MessageArchived, StatusAfterView(MessageArchived))
}

func TestCanTransitionIsUnrestricted(t *testing.T) {
	all := []MessageStatus{MessagePending, MessageRead, MessageArchived}
	for _, from := range all {
		for _, to := range all {
			assert.True(t, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, MessagePending.CanTransition("deleted"))
	assert.False(t, MessageStatus("unknown").CanTransition(MessageRead))
}
