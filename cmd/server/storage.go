package main

import (
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/storage"
)

// InitStorage selects and returns the configured artifact backend
func InitStorage(env Environment) storage.Storage {
	if env.UseSpaces {
		spacesStorage, err := storage.NewSpacesStorage(
			env.SpacesEndpoint,
			env.SpacesRegion,
			env.SpacesBucket,
			env.SpacesCDNURL,
			env.SpacesAccessKey,
			env.SpacesSecretKey,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Spaces storage")
		}
		log.Info().Str("cdn", env.SpacesCDNURL).Msg("using DigitalOcean Spaces artifact storage")
		return spacesStorage
	}

	local := storage.NewLocalStorage(env.ArtifactDir)
	log.Info().Str("dir", env.ArtifactDir).Msg("using local artifact storage")
	return local
}
