// Package app implements the user-facing download actions on top of the collaborator services and a task session.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/internal/session"
	"github.com/mytube/mytube/playlist"
	"github.com/mytube/mytube/selector"
)

// Options are the user's download preferences, passed explicitly to every task.
type Options struct {
	Resolution       mytube.Resolution
	SaveDir          string
	PrefixResolution bool
	// Notice is told about slow operations before they start.
	Notice func(message string)
}

// SlowPlaylistSearchNotice is shown before scanning a channel's playlist page.
const SlowPlaylistSearchNotice = "Searching the channel's playlists, this can take a while for large channels..."

// Batcher runs a batch of download tasks to completion.
type Batcher interface {
	RunBatch(ctx context.Context, jobs []mytube.DownloadTask) ([]session.Task, error)
}

type Services struct {
	Media     mytube.MediaService
	Channels  mytube.ChannelService
	Playlists mytube.PlaylistService
	Index     mytube.PlaylistIndex
	Matchers  *mytube.MatcherRegistry
}

type App struct {
	services Services
	batch    Batcher
	options  Options
}

func New(services Services, batch Batcher, options Options) *App {
	if services.Matchers == nil {
		services.Matchers = &mytube.DefaultMatcherRegistry
	}
	return &App{services: services, batch: batch, options: options}
}

// NormalizeChannelName removes all whitespace, so that "tech tips" doesn't find the channel "tech".
func NormalizeChannelName(name string) string {
	return strings.Join(strings.Fields(name), "")
}

func (a *App) task(video mytube.VideoRef, segments ...string) mytube.DownloadTask {
	return mytube.DownloadTask{
		Video:            &video,
		Resolution:       a.options.Resolution,
		Destination:      a.options.SaveDir,
		Segments:         segments,
		PrefixResolution: a.options.PrefixResolution,
	}
}

// DownloadVideo downloads a single video straight into the save directory, optionally under a different file name.
func (a *App) DownloadVideo(ctx context.Context, ref string, filename string) ([]session.Task, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty video URL", mytube.ErrInvalidReference)
	}
	video, err := a.services.Media.GetVideo(ctx, ref)
	if err != nil {
		return nil, err
	}
	task := a.task(*video)
	task.Filename = filename
	return a.batch.RunBatch(ctx, []mytube.DownloadTask{task})
}

// DownloadChannel downloads the channel's uploads that pass the filter, each into a folder named after its author.
func (a *App) DownloadChannel(ctx context.Context, channel string, filter selector.Filter) ([]session.Task, error) {
	channel = NormalizeChannelName(channel)
	if channel == "" {
		return nil, fmt.Errorf("%w: empty channel name", mytube.ErrInvalidReference)
	}
	log := mytube.Logger(ctx).Sugar().Named("app")
	videos, err := a.services.Channels.ChannelVideos(ctx, channel)
	if err != nil {
		return nil, err
	}
	selected, err := filter.SelectFrom(ctx, videos)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: channel %q, window %v, keywords %q", mytube.ErrNoCandidatesSelected, channel, filter.Window, filter.Keywords)
	}
	log.Infow("selected channel videos", "channel", channel, "count", len(selected))
	jobs := make([]mytube.DownloadTask, 0, len(selected))
	for _, v := range selected {
		jobs = append(jobs, a.task(v, v.Author))
	}
	return a.batch.RunBatch(ctx, jobs)
}

// DownloadPlaylist downloads every video of a playlist into <author>/<playlist title>.
func (a *App) DownloadPlaylist(ctx context.Context, ref string) ([]session.Task, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty playlist URL", mytube.ErrInvalidReference)
	}
	p, err := a.services.Playlists.GetPlaylist(ctx, ref)
	if err != nil {
		return nil, err
	}
	videos, err := mytube.Collect(ctx, p.Videos)
	if err != nil {
		return nil, err
	}
	jobs := make([]mytube.DownloadTask, 0, len(videos))
	for _, v := range videos {
		jobs = append(jobs, a.task(v, v.Author, p.Title))
	}
	return a.batch.RunBatch(ctx, jobs)
}

// DownloadChannelPlaylist finds a channel's playlist by name, asking confirm about close matches, and downloads its
// videos into folders named after their authors.
func (a *App) DownloadChannelPlaylist(ctx context.Context, channel string, name string, confirm mytube.Confirmer) ([]session.Task, error) {
	channel = NormalizeChannelName(channel)
	if channel == "" {
		return nil, fmt.Errorf("%w: empty channel name", mytube.ErrInvalidReference)
	}
	if a.options.Notice != nil {
		a.options.Notice(SlowPlaylistSearchNotice)
	}
	candidates, err := a.services.Index.ChannelPlaylists(ctx, channel)
	if err != nil {
		return nil, err
	}
	match, err := playlist.Match(ctx, name, candidates, confirm)
	if err != nil {
		return nil, err
	}
	p, err := a.services.Playlists.GetPlaylist(ctx, match.URL)
	if err != nil {
		return nil, err
	}
	videos, err := mytube.Collect(ctx, p.Videos)
	if err != nil {
		return nil, err
	}
	jobs := make([]mytube.DownloadTask, 0, len(videos))
	for _, v := range videos {
		jobs = append(jobs, a.task(v, v.Author))
	}
	return a.batch.RunBatch(ctx, jobs)
}

// Download works out what kind of reference it was given and downloads it. Channels are filtered by filter.
func (a *App) Download(ctx context.Context, ref string, filter selector.Filter) ([]session.Task, error) {
	match, err := a.services.Matchers.Match(ref)
	if err != nil {
		return nil, err
	}
	mytube.Logger(ctx).Sugar().Named("app").Debugw("matched reference", "kind", match.Kind, "value", match.Value, "matcher", match.MatcherName)
	switch match.Kind {
	case mytube.ReferenceVideo:
		return a.DownloadVideo(ctx, match.Value, "")
	case mytube.ReferencePlaylist:
		return a.DownloadPlaylist(ctx, match.Value)
	case mytube.ReferenceChannel:
		return a.DownloadChannel(ctx, match.Value, filter)
	default:
		return nil, errors.New("unsupported reference kind " + string(match.Kind))
	}
}
