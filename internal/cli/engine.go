package cli

import (
	"fmt"

	"github.com/fenv-org/mementor/internal/config"
	"github.com/fenv-org/mementor/internal/embedder"
	"github.com/fenv-org/mementor/internal/storage"
)

// engine bundles the open database and embedder a command or hook needs.
// Callers must Close it when done.
type engine struct {
	DB  *storage.DB
	Emb embedder.Embedder
}

func openEngine(gitRoot string) (*engine, error) {
	db, err := storage.Open(config.DBPath(gitRoot))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cacheDir, err := config.ModelCacheDir()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("resolve model cache dir: %w", err)
	}

	emb, err := embedder.New(cacheDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &engine{DB: db, Emb: emb}, nil
}

func (e *engine) Close() {
	e.Emb.Close()
	e.DB.Close()
}
