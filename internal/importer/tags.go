package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// Tags is what the importer needs from an audio file.
type Tags struct {
	Title    string
	Artist   string // raw, possibly several names
	Genre    string // raw, possibly several names
	Album    string
	Track    int // 0 when absent
	Duration *int
}

// TagReader reads tags from an audio file.
type TagReader interface {
	ReadTags(path string) (Tags, error)
}

// FileTags reads ID3 tags with dhowden/tag and measures duration by walking mp3 frames.
type FileTags struct{}

var _ TagReader = FileTags{}

// ReadTags returns empty tags, not an error, for files without a tag block.
func (FileTags) ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	var t Tags
	md, err := tag.ReadFrom(f)
	switch {
	case errors.Is(err, tag.ErrNoTagsFound):
	case err != nil:
		return Tags{}, fmt.Errorf("read tags: %w", err)
	default:
		t.Title = strings.TrimSpace(md.Title())
		t.Artist = md.Artist()
		t.Genre = md.Genre()
		t.Album = strings.TrimSpace(md.Album())
		t.Track, _ = md.Track()
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Tags{}, err
	}
	t.Duration = mp3Duration(f)
	return t, nil
}

// mp3Duration sums frame durations. nil when no frame decodes.
func mp3Duration(r io.Reader) *int {
	dec := mp3.NewDecoder(r)
	var (
		total   time.Duration
		skipped int
		frames  int
	)
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			break // EOF or a broken tail; keep what decoded
		}
		total += fr.Duration()
		frames++
	}
	if frames == 0 {
		return nil
	}
	secs := int(total.Seconds())
	return &secs
}

// titleRe matches one name in a tag that lists several, separated by / , ; or \.
var titleRe = regexp.MustCompile(`\s*([\s\p{L}\p{N}_\-&.']*[\p{L}\p{N}_])\s*[/,;\\]?`)

// splitTitles splits a multi-value tag into trimmed, de-duplicated names.
func splitTitles(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range titleRe.FindAllStringSubmatch(raw, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
