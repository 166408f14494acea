package testutil

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// FakeEmbedder implements ai.Embedder with deterministic vectors derived
// from the input text. Identical text always embeds to the identical
// vector, so similarity results are stable across test runs without any
// network access.
type FakeEmbedder struct {
	// Dimension is the vector width. Defaults to 768 when zero.
	Dimension int

	// Err, when set, is returned from every Embed call.
	Err error

	// CallCount tracks the number of Embed invocations.
	CallCount int
}

func (f *FakeEmbedder) Name() string {
	return "fake-embedder"
}

func (f *FakeEmbedder) Register(r api.Registry) {}

func (f *FakeEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	f.CallCount++

	if f.Err != nil {
		return nil, f.Err
	}

	dim := f.Dimension
	if dim <= 0 {
		dim = 768
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		for _, part := range doc.Content {
			text += part.Text
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: deterministicVector(text, dim),
		})
	}
	return resp, nil
}

// deterministicVector derives a unit-length vector from text. Texts that
// share a prefix produce nearby vectors, which is enough structure for
// ordering assertions in similarity tests.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		// xorshift64 keeps the sequence reproducible per seed.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000.0
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
