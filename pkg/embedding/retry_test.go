package embedding

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	errs  []error
	calls int
}

func (p *scriptedProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

func TestRetryerRecoversFromTransientErrors(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		Transient(errors.New("429")),
		Transient(errors.New("503")),
		nil,
	}}
	r := NewRetryer(p, 3, time.Millisecond)

	res, err := r.Generate("hello", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
	assert.NotEmpty(t, res.Embedding.Values)
}

func TestRetryerExhaustsBudget(t *testing.T) {
	p := &scriptedProvider{errs: []error{
		Transient(errors.New("503")),
		Transient(errors.New("503")),
		Transient(errors.New("503")),
	}}
	r := NewRetryer(p, 3, time.Millisecond)

	_, err := r.Generate("hello", TaskRetrievalQuery)
	require.Error(t, err)
	assert.Equal(t, 3, p.calls)
	assert.True(t, IsTransient(err))
}

func TestRetryerStopsOnFatalError(t *testing.T) {
	fatal := errors.New("invalid api key")
	p := &scriptedProvider{errs: []error{fatal, fatal, fatal}}
	r := NewRetryer(p, 5, time.Millisecond)

	_, err := r.Generate("hello", TaskRetrievalDocument)
	require.Error(t, err)
	assert.Equal(t, 1, p.calls)
	assert.False(t, IsTransient(err))
}

func TestIsTransientUnwraps(t *testing.T) {
	base := errors.New("boom")
	wrapped := Transient(base)
	assert.True(t, IsTransient(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, IsTransient(base))
	assert.Nil(t, Transient(nil))
}
