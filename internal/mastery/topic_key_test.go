package mastery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKey(t *testing.T) {
	assert.Equal(t, "Algebra", ResolveKey("Algebra"))
	assert.Equal(t, ResolveKey("Algebra"), ResolveKey("Algebra", ""))
	assert.Equal(t, ResolveKey("Algebra"), ResolveKey("Algebra", "   "))
	assert.Equal(t, "Factorising", ResolveKey("Algebra", "Factorising"))
	assert.Equal(t, "Surds", ResolveKey("", "Surds"))
	assert.Equal(t, FallbackTopicKey, ResolveKey("", ""))
	assert.Equal(t, FallbackTopicKey, ResolveKey(""))
}
