// Package download runs a single video download, stepping down the resolution ladder until a tier works.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/util"
)

const (
	DefaultContainer = "mp4"
	// MaxProgressInterval is the largest number of bytes received between two progress reports.
	MaxProgressInterval     int64 = 1 << 20
	DefaultProgressInterval int64 = 256 << 10
)

type Orchestrator struct {
	media            mytube.MediaService
	container        string
	progressInterval int64
}

type Option func(*Orchestrator)

// WithContainer sets the container (file extension) streams must have.
func WithContainer(container string) Option {
	return func(o *Orchestrator) {
		o.container = strings.ToLower(container)
	}
}

// WithProgressInterval sets how many bytes are received between progress reports, capped at MaxProgressInterval.
func WithProgressInterval(n int64) Option {
	return func(o *Orchestrator) {
		if n <= 0 || n > MaxProgressInterval {
			n = MaxProgressInterval
		}
		o.progressInterval = n
	}
}

func New(media mytube.MediaService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		media:            media,
		container:        DefaultContainer,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run downloads task.Video, starting at task.Resolution. If no progressive stream exists at a tier, or the transfer is
// interrupted, the next lower tier is tried; an interrupted transfer's partial file is removed first. Any other error
// ends the run. ErrNoPlayableResolution is returned once the ladder is exhausted.
func (o *Orchestrator) Run(ctx context.Context, task mytube.DownloadTask, progress mytube.ProgressFunc) (mytube.DownloadOutcome, error) {
	var outcome mytube.DownloadOutcome
	if task.Video == nil {
		return outcome, fmt.Errorf("%w: no video", mytube.ErrInvalidReference)
	}
	log := mytube.Logger(ctx).Named("download").With(zap.String("video_id", task.Video.ID))

	for tier := task.Resolution; !tier.IsNone(); tier = tier.Downgrade() {
		outcome.Attempts++
		stream, ok := o.selectStream(task.Video, tier)
		if !ok {
			log.Info("no progressive stream at resolution, falling back", zap.Stringer("resolution", tier))
			continue
		}
		log.Debug("downloading", zap.Stringer("resolution", tier), zap.Int("itag", stream.Itag))
		path, err := o.transfer(ctx, task, tier, stream, progress)
		if err == nil {
			outcome.Path = path
			outcome.Resolution = tier
			log.Info("download complete", zap.String("path", path), zap.Stringer("resolution", tier))
			return outcome, nil
		}
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		if errors.Is(err, mytube.ErrTransferInterrupted) {
			log.Warn("transfer interrupted, falling back", zap.Stringer("resolution", tier), zap.Error(err))
			continue
		}
		return outcome, err
	}
	return outcome, fmt.Errorf("%w: %s", mytube.ErrNoPlayableResolution, task.Video.Title)
}

// selectStream finds a progressive stream at exactly the given tier, preferring the highest frame rate.
func (o *Orchestrator) selectStream(video *mytube.VideoRef, tier mytube.Resolution) (mytube.StreamDescriptor, bool) {
	var best mytube.StreamDescriptor
	found := false
	for _, s := range video.Streams {
		if !s.Progressive || s.Resolution != tier.String() || strings.ToLower(s.Container) != o.container {
			continue
		}
		if !found || s.FPS > best.FPS {
			best = s
			found = true
		}
	}
	return best, found
}

func (o *Orchestrator) transfer(ctx context.Context, task mytube.DownloadTask, tier mytube.Resolution, stream mytube.StreamDescriptor, progress mytube.ProgressFunc) (string, error) {
	dir, err := util.ResolveDestination(task.Destination, task.Segments...)
	if err != nil {
		return "", err
	}
	var prefix string
	if task.PrefixResolution {
		prefix = tier.String()
	}
	path := filepath.Join(dir, util.OutputFilename(task.Video.Title, task.Filename, o.container, prefix))

	body, size, err := o.media.OpenStream(ctx, task.Video, stream)
	if err != nil {
		return "", err
	}
	defer body.Close()
	if size <= 0 {
		size = stream.Size
	}

	// Stream into a hidden temporary file so an existing file at path survives a failed transfer.
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to open target file: %w", err)
	}
	partial := f.Name()
	counter := newProgressWriter(size, o.progressInterval, progress)
	counter.emit()
	_, err = io.Copy(io.MultiWriter(f, counter), &readerContext{ctx: ctx, r: body})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(partial, path)
	}
	if err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("failed to save stream: %w", err)
	}
	counter.finish()
	return path, nil
}
