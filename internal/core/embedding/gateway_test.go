package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	dim  int
	fail bool
}

func (f *fakeProvider) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errors.New("backend down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[i%f.dim] = 1
		out[i] = v
	}
	return out, nil
}

func TestGatewayPassesThroughProvider(t *testing.T) {
	g := NewGateway(&fakeProvider{dim: 4})
	vecs, err := g.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.False(t, g.Degraded())
	assert.Equal(t, []float32{1, 0, 0, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1, 0, 0}, vecs[1])
}

func TestGatewayFallsBackDeterministically(t *testing.T) {
	g := NewGateway(&fakeProvider{fail: true})

	first, err := g.EmbedTexts(context.Background(), []string{"same text", "other"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, g.Degraded())

	second, err := g.EmbedTexts(context.Background(), []string{"same text"})
	require.NoError(t, err)

	// Hash vectors are stable per input and distinguish different inputs.
	assert.Equal(t, first[0], second[0])
	assert.NotEqual(t, first[0], first[1])
	assert.Len(t, first[0], FallbackDim)
}

func TestGatewayNilProviderDegrades(t *testing.T) {
	g := NewGateway(nil)
	vecs, err := g.EmbedTexts(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.True(t, g.Degraded())
}

func TestGatewayEmptyBatch(t *testing.T) {
	g := NewGateway(&fakeProvider{dim: 2})
	vecs, err := g.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestGatewayRecoversAfterProviderReturns(t *testing.T) {
	p := &fakeProvider{dim: 2, fail: true}
	g := NewGateway(p)

	_, err := g.EmbedTexts(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.True(t, g.Degraded())

	p.fail = false
	_, err = g.EmbedTexts(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.False(t, g.Degraded())
}
