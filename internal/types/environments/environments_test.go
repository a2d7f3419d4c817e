package environments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Development, Parse("development"))
	assert.Equal(t, Staging, Parse(" STAGING "))
	assert.Equal(t, Test, Parse("test"))
	assert.Equal(t, Production, Parse("production"))

	// unrecognized values fall back to the strictest settings
	assert.Equal(t, Production, Parse(""))
	assert.Equal(t, Production, Parse("qa"))
}
