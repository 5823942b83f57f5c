package mytube

import (
	"context"
	"io"
)

// MediaService resolves video references and transfers their streams.
type MediaService interface {
	// GetVideo resolves a URL or video ID, failing with ErrInvalidReference if it cannot be parsed.
	GetVideo(ctx context.Context, ref string) (*VideoRef, error)
	// OpenStream starts the transfer of one stream, returning the body and its total size. Reads fail with
	// ErrTransferInterrupted if the remote side closes the stream part-way through.
	OpenStream(ctx context.Context, video *VideoRef, stream StreamDescriptor) (io.ReadCloser, int64, error)
}

// ChannelService enumerates a channel's uploads, newest first.
type ChannelService interface {
	ChannelVideos(ctx context.Context, channel string) (VideoIterator, error)
}

// PlaylistService enumerates a playlist's videos in playlist order.
type PlaylistService interface {
	GetPlaylist(ctx context.Context, ref string) (*Playlist, error)
}

// PlaylistIndex lists the playlists shown on a channel's playlist page. This is slow for large channels.
type PlaylistIndex interface {
	ChannelPlaylists(ctx context.Context, channel string) ([]PlaylistCandidate, error)
}

// Confirmer asks the user a yes/no question and blocks until they answer.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, question string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// ProgressFunc receives download progress as a percentage. It must not block.
type ProgressFunc func(percent float64)
