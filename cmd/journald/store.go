package main

import (
	"fmt"

	"github.com/fyrsmithlabs/journald/internal/config"
	"github.com/fyrsmithlabs/journald/internal/reflection"
	"go.uber.org/zap"
)

// openStore builds the configured store. path is empty for the memory backend.
func openStore(cfg *config.Config, logger *zap.Logger) (store reflection.Store, path string, err error) {
	ids, err := reflection.IDGeneratorFor(cfg.Storage.IDStrategy)
	if err != nil {
		return nil, "", err
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return reflection.NewMemoryStore(ids, nil, logger), "", nil
	case config.BackendFile, "":
		fileStore, err := reflection.NewFileStore(reflection.FileStoreConfig{
			Path: cfg.Storage.Path(),
			IDs:  ids,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return fileStore, fileStore.Path(), nil
	default:
		return nil, "", fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
