package mytube

import (
	"context"
	"io"
	"time"
)

// StreamDescriptor describes one entry of a video's stream table.
type StreamDescriptor struct {
	Itag int
	// Resolution is the tier label ("720p"), without any frame rate suffix.
	Resolution string
	// Container is the file extension of the stream, e.g. "mp4" or "webm".
	Container string
	// Progressive streams carry both audio and video in a single file.
	Progressive bool
	FPS         int
	Size        int64
}

// VideoRef is a resolved remote video. It is never modified after the MediaService returns it.
type VideoRef struct {
	ID          string
	URL         string
	Title       string
	Author      string
	PublishDate time.Time
	Keywords    []string
	Streams     []StreamDescriptor
	// Handle is owned by the MediaService that produced the VideoRef.
	Handle any
}

type PlaylistCandidate struct {
	Title string
	URL   string
}

type Playlist struct {
	ID     string
	Title  string
	Author string
	Videos VideoIterator
}

// VideoIterator yields videos one at a time, returning io.EOF when there are no more.
type VideoIterator interface {
	Next(ctx context.Context) (*VideoRef, error)
}

// SliceIterator is a VideoIterator over videos that are already in memory.
type SliceIterator struct {
	videos []VideoRef
	pos    int
}

func NewSliceIterator(videos []VideoRef) *SliceIterator {
	return &SliceIterator{videos: videos}
}

func (it *SliceIterator) Next(ctx context.Context) (*VideoRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.pos >= len(it.videos) {
		return nil, io.EOF
	}
	v := &it.videos[it.pos]
	it.pos++
	return v, nil
}

// Collect drains an iterator.
func Collect(ctx context.Context, it VideoIterator) ([]VideoRef, error) {
	var videos []VideoRef
	for {
		v, err := it.Next(ctx)
		if err == io.EOF {
			return videos, nil
		} else if err != nil {
			return videos, err
		}
		videos = append(videos, *v)
	}
}

// DownloadTask is everything needed to download one video. It belongs to a single orchestrator run.
type DownloadTask struct {
	Video      *VideoRef
	Resolution Resolution
	// Destination is the base directory; Segments are appended to it as sanitized sub-directories.
	Destination string
	Segments    []string
	// Filename overrides the file name derived from the video title, if set.
	Filename         string
	PrefixResolution bool
}

type DownloadOutcome struct {
	Path       string
	Resolution Resolution
	// Attempts counts the tiers tried, so 1 means no fallback was needed.
	Attempts int
}
