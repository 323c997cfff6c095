package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	data, err := Marshal(map[string]any{"id": 123})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":123}`, string(data))

	var out map[string]any
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, float64(123), out["id"])
	assert.True(t, Valid(data))
}

func TestConfig(t *testing.T) {
	plain := Config(false)
	assert.Same(t, plain, Config(false))

	data, err := plain.Marshal("<a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a>"`, string(data))

	data, err = Config(true).Marshal("<a>")
	require.NoError(t, err)
	assert.Equal(t, `"\u003ca\u003e"`, string(data))

	data, err = plain.Marshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, string(data))
}
