package tserr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsInternal(t *testing.T) {
	assert.True(t, IsInternal(errors.Wrapf(ErrUnknownType, "type id %d", 7)))
	assert.True(t, IsInternal(ErrUnknownDefinition))
	assert.False(t, IsInternal(ErrDepthExceeded))
	assert.False(t, IsInternal(errors.New("mismatch")))
}

func TestFailures(t *testing.T) {
	var f *Failures
	assert.False(t, f.HasError())
	assert.Empty(t, f.Errors())

	f = f.With(errors.New("first"))
	f = f.Merge((&Failures{}).With(errors.New("second")))
	assert.True(t, f.HasError())
	assert.Len(t, f.Errors(), 2)
	assert.Equal(t, "first (and 1 more)", f.Error())
	assert.Len(t, f.LogValue().Group(), 2)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "missing property", MissingProperty.String())
	assert.Equal(t, "reason(999)", Reason(999).String())
}

func TestParseReason(t *testing.T) {
	for r := range reasonNames {
		parsed, ok := ParseReason(r.String())
		assert.True(t, ok)
		assert.Equal(t, r, parsed)
	}
	_, ok := ParseReason("no such reason")
	assert.False(t, ok)
}
