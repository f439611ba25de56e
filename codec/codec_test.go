package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAgree(t *testing.T) {
	in := sample{Name: "segments", Count: 42}

	jsonBytes, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	goBytes, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)

	assert.JSONEq(t, string(jsonBytes), string(goBytes))

	var out sample
	require.NoError(t, GoJSON{}.Unmarshal(jsonBytes, &out))
	assert.Equal(t, in, out)

	out = sample{}
	require.NoError(t, JSON{}.Unmarshal(goBytes, &out))
	assert.Equal(t, in, out)
}

func TestMustMarshalNilCodec(t *testing.T) {
	b := MustMarshal(nil, sample{Name: "x"})
	assert.NotEmpty(t, b)
}
