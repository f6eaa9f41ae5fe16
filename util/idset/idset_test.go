package idset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSetAlgebra(t *testing.T) {
	testCases := []struct {
		name     string
		op       func(a, b []uint32) []uint32
		a, b     []uint32
		expected []uint32
	}{
		{name: "union", op: Union[uint32], a: From[uint32](5, 1, 3), b: From[uint32](2, 3), expected: []uint32{1, 2, 3, 5}},
		{name: "inter", op: Inter[uint32], a: From[uint32](1, 2, 3), b: From[uint32](2, 3, 4), expected: []uint32{2, 3}},
		{name: "inter disjoint", op: Inter[uint32], a: From[uint32](1), b: From[uint32](2), expected: []uint32{}},
		{name: "diff", op: Diff[uint32], a: From[uint32](1, 2, 3), b: From[uint32](2), expected: []uint32{1, 3}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ElementsMatch(t, tc.expected, tc.op(tc.a, tc.b))
		})
	}
}

func TestFrom(t *testing.T) {
	input := []uint32{3, 1, 3, 2, 1}
	assert.Equal(t, []uint32{1, 2, 3}, From(input...))
	assert.Equal(t, []uint32{3, 1, 3, 2, 1}, input, "input must not be modified")
}

func TestIsSubAndContains(t *testing.T) {
	assert.True(t, IsSub(From[uint32](1, 3), From[uint32](1, 2, 3)))
	assert.False(t, IsSub(From[uint32](1, 4), From[uint32](1, 2, 3)))
	assert.True(t, Contains(From[uint32](1, 2, 3), 2))
	assert.False(t, Contains(From[uint32](1, 2, 3), 7))
}
