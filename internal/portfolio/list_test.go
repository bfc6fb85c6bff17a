package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommaList(t *testing.T) {
	assert.Equal(t, []string{"Make.com", "OpenAI", "Airtable"}, ParseCommaList("Make.com, OpenAI ,  Airtable"))
	assert.Equal(t, []string{"a", "b"}, ParseCommaList(",a,, ,b,"))

	empty := ParseCommaList("   ")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestJoinCommaList(t *testing.T) {
	assert.Equal(t, "Make.com, OpenAI", JoinCommaList([]string{"Make.com", "OpenAI"}))
	assert.Equal(t, "", JoinCommaList(nil))
}
