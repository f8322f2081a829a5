package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrNotFound, "system system_42")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrParse))
	assert.Contains(t, err.Error(), "system_42")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
}

func TestIsAny(t *testing.T) {
	err := Wrapf(ErrParse, "line %d", 7)
	assert.True(t, IsAny(err, ErrNotFound, ErrParse))
}
