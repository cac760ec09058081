package recordstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, KeyProjects)
	require.NoError(t, err)
	assert.False(t, ok)

	in := json.RawMessage(`[{"id":"p1"}]`)
	require.NoError(t, m.Set(ctx, KeyProjects, in))

	out, ok, err := m.Get(ctx, KeyProjects)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, string(in), string(out))
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	in := json.RawMessage(`{"a":1}`)
	require.NoError(t, m.Set(ctx, "k", in))
	in[1] = 'X'

	out, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(out))

	out[1] = 'Y'
	again, _, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(again))
}

func TestMemoryKeysIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, KeyConsultations, json.RawMessage(`[]`)))
	_, ok, err := m.Get(ctx, KeyProjects)
	require.NoError(t, err)
	assert.False(t, ok)
}
