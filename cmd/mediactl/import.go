package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/importer"
	"github.com/and161185/audio-dementia/internal/lastfm"
	"github.com/and161185/audio-dementia/internal/repository/postgres"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		watch bool
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import .mp3 files into the catalog",
		Long: "Reads tags of every .mp3 directly inside the import folder, completes album data\n" +
			"from Last.fm when an API key is configured, moves the file into <storage>/added\n" +
			"and writes the catalog rows.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if dir == "" {
				dir = a.cfg.Media.ImportDir
			}

			db, err := postgres.New(ctx, a.cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			// typed nil would defeat the importer's nil check
			var meta importer.MetadataClient
			if a.cfg.LastFM.APIKey != "" {
				meta = lastfm.NewClient(&http.Client{Timeout: a.cfg.LastFM.Timeout}, a.cfg.LastFM.BaseURL, a.cfg.LastFM.APIKey)
			} else {
				a.log.Info("no Last.fm API key, album lookups disabled")
			}

			im := importer.New(postgres.NewImportRepo(db), importer.FileTags{}, meta, a.cfg.Media.AddedDir(), a.log.Named("importer"))
			if watch {
				return im.Watch(ctx, dir, 0)
			}
			rep, err := im.Run(ctx, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d, skipped %d, failed %d\n", rep.Added, rep.Skipped, rep.Failed)
			if rep.Failed > 0 {
				a.log.Warn("some files were not imported", zap.Int("failed", rep.Failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and import new files as they appear")
	cmd.Flags().StringVar(&dir, "dir", "", "folder to import from (default: media.import_dir)")
	return cmd
}
