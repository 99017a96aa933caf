// This file is part of matstrip
package stripper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripErrorUnwrapsToItsSentinelKind(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := NewStripError("RemoveAll", "/tmp/a.zip", ErrCorruptContainer, cause)

	assert.True(t, errors.Is(err, ErrCorruptContainer))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrWriteFailure))
}

func TestStripErrorMessageIncludesOpAndPath(t *testing.T) {
	err := NewStripError("IsClean", "/tmp/a.zip", ErrUnreadableSource, nil)
	assert.Contains(t, err.Error(), "IsClean")
	assert.Contains(t, err.Error(), "/tmp/a.zip")
}
