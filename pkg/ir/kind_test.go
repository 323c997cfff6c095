package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type label string

func TestKindOf(t *testing.T) {
	var nilPtr *int
	var nilMap *Map
	var nilSlice []string

	cases := []struct {
		value any
		kind  Kind
	}{
		{nil, KindNull},
		{nilPtr, KindNull},
		{nilMap, KindNull},
		{nilSlice, KindNull},
		{true, KindBool},
		{123, KindNumber},
		{uint8(1), KindNumber},
		{1.5, KindNumber},
		{"x", KindString},
		{label("x"), KindString},
		{[]any{}, KindList},
		{[]string{"a"}, KindList},
		{[2]int{1, 2}, KindList},
		{NewMap(0), KindMap},
		{map[string]int{"a": 1}, KindMap},
		{map[int]int{1: 1}, KindOther},
		{[]byte("raw"), KindOther},
		{time.Now(), KindOther},
		{&struct{}{}, KindOther},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, KindOf(c.value), "%T", c.value)
	}
	assert.Equal(t, "list", KindList.String())
}

func TestListOf(t *testing.T) {
	list, ok := ListOf([]string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, list)

	list, ok = ListOf([2]int{1, 2})
	assert.True(t, ok)
	assert.Equal(t, []any{1, 2}, list)

	_, ok = ListOf("nope")
	assert.False(t, ok)
}

func TestMapOf(t *testing.T) {
	m, ok := MapOf(map[string]int{"b": 2, "a": 1})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	orig := Of(Pair{"z", 1})
	m, ok = MapOf(orig)
	assert.True(t, ok)
	assert.Same(t, orig, m)

	_, ok = MapOf(map[int]int{})
	assert.False(t, ok)
	_, ok = MapOf((*Map)(nil))
	assert.False(t, ok)
}

func TestFloat(t *testing.T) {
	f, ok := Float(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
	f, ok = Float(uint(4))
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)
	_, ok = Float("3")
	assert.False(t, ok)
}
