// Package embedder defines the contract boundary to the neural embedding
// model: batch embed plus tokenizer access, mirroring the shape of the
// teacher's nomic.Embedder (NewEmbedder/EmbedDocument/EmbedQuery/Close)
// generalized to an interface, since the model runtime itself is an
// external collaborator out of this implementation's scope.
package embedder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fenv-org/mementor/internal/merr"
)

// readyMarker names the file 'mementor model download' writes into the
// cache directory once a model is available. Its absence is what makes
// New fail with ErrNotConfigured — the real neural runtime is out of
// scope, so this marker is the only signal the download collaborator
// and the embedder constructor share.
const readyMarker = ".ready"

// MarkerPath returns the path New checks for readiness, exported so the
// model-download command can write it.
func MarkerPath(modelCacheDir string) string {
	return filepath.Join(modelCacheDir, readyMarker)
}

// Tokenizer exposes the encode/decode pair the chunker needs to measure
// and trim token budgets.
type Tokenizer interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// Embedder is the contract: batch text in, fixed-dimension vectors out.
// Failure of any single item fails the whole batch, per the component
// design.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the fixed vector length this embedder produces.
	Dimension() int
	Tokenizer() Tokenizer
	Close() error
}

// New constructs the configured embedder from a model cache directory.
// Failure here must advise the user to run the model-download
// collaborator — the neural runtime itself is out of scope, so the only
// implementation wired in today is a deterministic stand-in used by tests
// and as a placeholder until a real model adapter is plugged in.
func New(modelCacheDir string) (Embedder, error) {
	if modelCacheDir == "" {
		return nil, fmt.Errorf("%w: no model cache configured, run 'mementor model download'", merr.ErrNotConfigured)
	}
	if _, err := os.Stat(MarkerPath(modelCacheDir)); err != nil {
		return nil, fmt.Errorf("%w: no model downloaded, run 'mementor model download'", merr.ErrNotConfigured)
	}
	return newHashEmbedder(defaultDimension), nil
}

// defaultDimension is the schema-wide embedding dimension. Changing it
// requires erasing all Chunks, per the data model's invariant.
const defaultDimension = 384
