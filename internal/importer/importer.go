// Package importer loads mp3 files from a folder into the catalog.
//
// Each file is handled on its own: tags are read, the album is resolved
// (tag, then Last.fm, then "unknown"), covers are fetched for albums the
// catalog does not know yet, the file is moved into the added folder and the
// song is written in one transaction. A failed write moves the file back.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/audio-dementia/internal/model"
	"github.com/and161185/audio-dementia/internal/repository"
)

// MetadataClient looks up missing album data. *lastfm.Client implements it.
type MetadataClient interface {
	TrackAlbum(ctx context.Context, artist, track string) (string, error)
	AlbumCovers(ctx context.Context, artist, album string) (small, medium *string, err error)
}

// Report counts the outcome of one Run.
type Report struct {
	Added   int
	Skipped int
	Failed  int
}

type outcome int

const (
	added outcome = iota
	skipped
	failed
)

// Importer moves tagged .mp3 files from an import folder into the catalog.
type Importer struct {
	repo     repository.ImportRepository
	tags     TagReader
	meta     MetadataClient
	addedDir string
	log      *zap.Logger
}

// New builds an importer. meta may be nil to disable Last.fm lookups.
func New(repo repository.ImportRepository, tags TagReader, meta MetadataClient, addedDir string, log *zap.Logger) *Importer {
	if tags == nil {
		tags = FileTags{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{repo: repo, tags: tags, meta: meta, addedDir: addedDir, log: log}
}

func isMP3(name string) bool { return strings.EqualFold(filepath.Ext(name), ".mp3") }

// Run imports every .mp3 directly inside folder. Subdirectories are not visited.
func (im *Importer) Run(ctx context.Context, folder string) (Report, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return Report{}, fmt.Errorf("list %s: %w", folder, err)
	}

	var rep Report
	for _, e := range entries {
		if !e.Type().IsRegular() || !isMP3(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		switch im.importFile(ctx, filepath.Join(folder, e.Name())) {
		case added:
			rep.Added++
		case skipped:
			rep.Skipped++
		case failed:
			rep.Failed++
		}
	}
	im.log.Info("import finished",
		zap.String("folder", folder),
		zap.Int("added", rep.Added),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed))
	return rep, nil
}

func (im *Importer) importFile(ctx context.Context, path string) outcome {
	log := im.log.With(zap.String("file", path))

	t, err := im.tags.ReadTags(path)
	if err != nil {
		log.Warn("unreadable file", zap.Error(err))
		return failed
	}
	artists := splitTitles(t.Artist)
	if t.Title == "" || len(artists) == 0 {
		log.Info("skipped: title or artist tag missing")
		return skipped
	}

	item := repository.ImportItem{
		Title:    t.Title,
		Duration: t.Duration,
		Artists:  artists,
		Genres:   splitTitles(t.Genre),
		Album:    t.Album,
	}
	if t.Track > 0 {
		pos := t.Track
		item.AlbumPosition = &pos
	}

	if item.Album == "" && im.meta != nil {
		title, err := im.meta.TrackAlbum(ctx, artists[0], t.Title)
		if err != nil {
			log.Warn("album lookup failed", zap.Error(err))
		}
		item.Album = title
	}
	if item.Album == "" {
		item.Album = model.UnknownAlbum
	}

	if item.Album != model.UnknownAlbum && im.meta != nil {
		exists, err := im.repo.AlbumExists(ctx, item.Album, artists[0])
		if err != nil {
			log.Error("album check failed", zap.Error(err))
			return failed
		}
		if !exists {
			item.CoverSmall, item.CoverMedium, err = im.meta.AlbumCovers(ctx, artists[0], item.Album)
			if err != nil {
				log.Warn("cover lookup failed", zap.Error(err))
			}
		}
	}

	dest, err := im.moveIn(path)
	if err != nil {
		log.Error("move failed", zap.Error(err))
		return failed
	}
	item.FilePath = dest

	id, err := im.repo.ImportSong(ctx, item)
	if err != nil {
		log.Error("import failed", zap.Error(err))
		if mvErr := moveFile(dest, path); mvErr != nil {
			log.Error("could not move file back", zap.String("dest", dest), zap.Error(mvErr))
		}
		return failed
	}
	log.Info("song added", zap.Int64("id", id), zap.String("title", item.Title), zap.String("album", item.Album))
	return added
}

// moveIn moves path into the added folder and returns the absolute destination.
func (im *Importer) moveIn(path string) (string, error) {
	if err := os.MkdirAll(im.addedDir, 0o755); err != nil {
		return "", err
	}
	dest, err := filepath.Abs(filepath.Join(im.addedDir, filepath.Base(path)))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("%s already exists", dest)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := moveFile(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// moveFile renames src to dst, copying when they sit on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
