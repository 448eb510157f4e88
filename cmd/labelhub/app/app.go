// Package app builds the labelhub command.
package app

import (
	"github.com/kart-io/labelhub/cmd/labelhub/app/options"
	"github.com/kart-io/labelhub/internal/labelhub"
	"github.com/kart-io/labelhub/pkg/infra/app"
)

const description = `LabelHub annotation server.

LabelHub stores datasets of records to be annotated and serves:
  - Dataset, field, question and metadata schema management
  - Bulk creation and upsert of records with responses, suggestions and vectors
  - Record listing, retrieval and bulk deletion`

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := options.NewServerOptions()

	return app.NewApp(
		app.WithName(labelhub.Name),
		app.WithShortDescription("LabelHub annotation server"),
		app.WithDescription(description),
		app.WithOptions(opts),
		app.WithWatchConfig(),
		app.WithRunFunc(func() error {
			cfg, err := opts.Config()
			if err != nil {
				return err
			}
			return labelhub.Run(cfg)
		}),
	)
}
