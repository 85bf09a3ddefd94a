package main

import (
	"context"
	"testing"

	"github.com/dcshock/servicepipe/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, name string, shared *pipeline.Shared[pipeline.Values], in any) (any, error) {
	t.Helper()
	svc, ok := builtinRegistry().Get(name)
	require.True(t, ok, "builtin %q not registered", name)
	return svc.Call(context.Background(), in, shared)
}

func TestBuiltins_StringServices(t *testing.T) {
	shared := pipeline.NewShared(pipeline.Values{})
	cases := []struct {
		name, in, want string
	}{
		{"upper", "abc", "ABC"},
		{"lower", "ABC", "abc"},
		{"trim", "  abc ", "abc"},
		{"reverse", "héllo", "olléh"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := call(t, c.name, shared, c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestBuiltins_StripHTML(t *testing.T) {
	out, err := call(t, "strip-html", pipeline.NewShared(pipeline.Values{}), "<b>bold</b> move")
	require.NoError(t, err)
	assert.Equal(t, "bold move", out)
}

func TestBuiltins_RejectNonString(t *testing.T) {
	_, err := call(t, "upper", pipeline.NewShared(pipeline.Values{}), 42)
	assert.EqualError(t, err, "upper: expected string, got int")
}

func TestBuiltins_RememberAndAppendState(t *testing.T) {
	ctx := context.Background()
	shared := pipeline.NewShared(pipeline.Values{keySuffix: "B"})

	out, err := call(t, "remember", shared, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	last, ok, err := pipeline.Get[string](ctx, shared, keyLast)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", last)

	out, err = call(t, "append-state", shared, "x")
	require.NoError(t, err)
	assert.Equal(t, "x-B", out)

	_, err = call(t, "append-state", pipeline.NewShared(pipeline.Values{}), "x")
	assert.EqualError(t, err, `no "suffix" in shared state`)
}

func TestBuiltins_Count(t *testing.T) {
	shared := pipeline.NewShared(pipeline.Values{})
	for i := 0; i < 3; i++ {
		out, err := call(t, "count", shared, "in")
		require.NoError(t, err)
		assert.Equal(t, "in", out)
	}
	n, ok, err := pipeline.Get[int](context.Background(), shared, keyCount)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestBuiltins_RequireNonEmpty(t *testing.T) {
	shared := pipeline.NewShared(pipeline.Values{})
	_, err := call(t, "require-nonempty", shared, "")
	assert.EqualError(t, err, "empty input")
	out, err := call(t, "require-nonempty", shared, "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestParseState(t *testing.T) {
	state, err := parseState([]string{"suffix=B", "empty=", "eq=a=b"})
	require.NoError(t, err)
	assert.Equal(t, pipeline.Values{"suffix": "B", "empty": "", "eq": "a=b"}, state)

	_, err = parseState([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseState([]string{"=v"})
	assert.Error(t, err)
}
