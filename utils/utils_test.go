package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeLabel(t *testing.T) {
	assert.Equal(t, "Illegal Dump", HumanizeLabel("illegal_dump"))
	assert.Equal(t, "Garbage", HumanizeLabel("garbage"))
	assert.Equal(t, "Tree Planting", HumanizeLabel("tree_planting"))
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("proofs", "Before Photo (1).JPG")

	assert.True(t, strings.HasPrefix(key, "proofs/before-photo-1-"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	// Random suffix keeps repeated uploads of the same file apart.
	assert.NotEqual(t, key, ObjectKey("proofs", "Before Photo (1).JPG"))
}
