// Package mock provides a test double for the embeddings.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/fitfinder-ai/fitfinder/pkg/provider/embeddings"
)

var _ embeddings.Provider = (*Provider)(nil)

// Provider is a deterministic mock embeddings backend.
//
// Unless Vectors supplies an explicit result for a text, Embed derives a
// stable pseudo-vector from the text's bytes, so that equal inputs embed
// equally and different inputs (almost always) differ. Dim defaults to 8
// when zero.
type Provider struct {
	mu sync.Mutex

	// Dim is the vector dimensionality. Defaults to 8.
	Dim int

	// Vectors maps input text to a fixed result, overriding the derived
	// pseudo-vector.
	Vectors map[string][]float32

	// Err, if non-nil, is returned by Embed and EmbedBatch.
	Err error

	// Model is returned by ModelID. Defaults to "mock-embed".
	Model string

	// Inputs records every text passed to Embed and EmbedBatch, in order.
	Inputs []string
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Inputs = append(p.Inputs, text)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.vector(text), nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Inputs = append(p.Inputs, texts...)
	if p.Err != nil {
		return nil, p.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vector(t)
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	if p.Dim <= 0 {
		return 8
	}
	return p.Dim
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	if p.Model == "" {
		return "mock-embed"
	}
	return p.Model
}

// vector returns the configured or derived embedding for text.
// Caller must hold p.mu.
func (p *Provider) vector(text string) []float32 {
	if v, ok := p.Vectors[text]; ok {
		return v
	}
	dim := p.Dim
	if dim <= 0 {
		dim = 8
	}
	vec := make([]float32, dim)
	for i, b := range []byte(text) {
		vec[i%dim] += float32(b) / 255
	}
	return vec
}
