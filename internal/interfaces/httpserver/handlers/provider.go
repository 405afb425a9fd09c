package handlers

import (
	"github.com/rs/zerolog"

	"github.com/photovault/photovault/internal/config"
	"github.com/photovault/photovault/internal/domain/archive"
	"github.com/photovault/photovault/internal/domain/routing"
	repo "github.com/photovault/photovault/internal/infrastructure/repository/photo"
)

// Provider wires HTTP handlers.
type Provider struct {
	Photo   *PhotoHandler
	Archive *ArchiveHandler
}

func NewProvider(cfg *config.Config, router *routing.Router, archiver *archive.Archiver, photos *repo.Repository, log zerolog.Logger) *Provider {
	return &Provider{
		Photo:   NewPhotoHandler(cfg, router, photos, log),
		Archive: NewArchiveHandler(archiver, photos, log),
	}
}
