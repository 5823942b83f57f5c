// Package youtube implements the mytube collaborator interfaces on top of github.com/kkdai/youtube/v2, plus some
// scraping of channel pages for what that library does not cover.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"

	"github.com/mytube/mytube"
)

const DefaultBaseURL = "https://www.youtube.com"

var (
	_ mytube.MediaService    = (*Provider)(nil)
	_ mytube.ChannelService  = (*Provider)(nil)
	_ mytube.PlaylistService = (*Provider)(nil)
	_ mytube.PlaylistIndex   = (*Provider)(nil)
)

type Provider struct {
	client     *youtube.Client
	httpClient *http.Client
	limiter    *rate.Limiter
	keywords   bool
	baseURL    string
}

type Option func(*Provider)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithRateLimit limits how many videos per second are resolved while enumerating channels and playlists. Zero or less
// disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(p *Provider) {
		if perSecond <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 1)
		} else {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithKeywords makes every resolved video also fetch its keyword tags, at the cost of one more request per video.
func WithKeywords(enabled bool) Option {
	return func(p *Provider) {
		p.keywords = enabled
	}
}

// WithBaseURL overrides where channel pages are scraped from.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client = &youtube.Client{HTTPClient: p.httpClient}
	return p
}

func (p *Provider) GetVideo(ctx context.Context, ref string) (*mytube.VideoRef, error) {
	id, err := ExtractVideoID(ref)
	if err != nil {
		return nil, err
	}
	video, err := p.client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", classify(err))
	}
	return p.videoRef(ctx, video), nil
}

func (p *Provider) OpenStream(ctx context.Context, ref *mytube.VideoRef, stream mytube.StreamDescriptor) (io.ReadCloser, int64, error) {
	video, ok := ref.Handle.(*youtube.Video)
	if !ok {
		return nil, 0, fmt.Errorf("%w: video %s was not resolved by this provider", mytube.ErrInvalidReference, ref.ID)
	}
	var format *youtube.Format
	for i := range video.Formats {
		if video.Formats[i].ItagNo == stream.Itag {
			format = &video.Formats[i]
			break
		}
	}
	if format == nil {
		return nil, 0, fmt.Errorf("%w: no stream with itag %d", mytube.ErrNoPlayableResolution, stream.Itag)
	}
	body, size, err := p.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stream: %w", classify(err))
	}
	return &interruptReader{ReadCloser: body}, size, nil
}

func (p *Provider) videoRef(ctx context.Context, video *youtube.Video) *mytube.VideoRef {
	ref := &mytube.VideoRef{
		ID:          video.ID,
		URL:         watchURL(video.ID),
		Title:       video.Title,
		Author:      video.Author,
		PublishDate: video.PublishDate,
		Handle:      video,
	}
	for _, f := range video.Formats {
		ref.Streams = append(ref.Streams, streamDescriptor(f))
	}
	if p.keywords {
		keywords, err := p.fetchKeywords(ctx, video.ID)
		if err != nil {
			mytube.Logger(ctx).Sugar().Warnw("failed to fetch video keywords", "video_id", video.ID, "error", err)
		}
		ref.Keywords = keywords
	}
	return ref
}

func streamDescriptor(f youtube.Format) mytube.StreamDescriptor {
	mimeType := strings.TrimSpace(strings.SplitN(f.MimeType, ";", 2)[0])
	var container string
	if parts := strings.SplitN(mimeType, "/", 2); len(parts) == 2 {
		container = parts[1]
	}
	return mytube.StreamDescriptor{
		Itag:        f.ItagNo,
		Resolution:  qualityTier(f.QualityLabel),
		Container:   container,
		Progressive: strings.HasPrefix(mimeType, "video/") && f.AudioChannels > 0,
		FPS:         f.FPS,
		Size:        f.ContentLength,
	}
}

// qualityTier strips anything after the "p" of a quality label, so "720p60" and "1080p HDR" become "720p" and "1080p".
func qualityTier(label string) string {
	if i := strings.IndexByte(label, 'p'); i > 0 {
		return label[:i+1]
	}
	return label
}

func watchURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}
