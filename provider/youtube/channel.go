package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kkdai/youtube/v2"

	"github.com/mytube/mytube"
)

const initialDataMarker = "ytInitialData"

var canonicalChannelPattern = regexp.MustCompile(`/channel/(UC[0-9A-Za-z_-]{22})`)

// ChannelVideos enumerates a channel's uploads, newest first, via its uploads playlist.
func (p *Provider) ChannelVideos(ctx context.Context, channel string) (mytube.VideoIterator, error) {
	channelID, err := p.resolveChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}
	playlist, err := p.client.GetPlaylistContext(ctx, uploadsPlaylistID(channelID))
	if err != nil {
		return nil, fmt.Errorf("failed to list channel uploads: %w", classify(err))
	}
	return p.newIterator(playlist.Videos), nil
}

func (p *Provider) GetPlaylist(ctx context.Context, ref string) (*mytube.Playlist, error) {
	playlist, err := p.client.GetPlaylistContext(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", classify(err))
	}
	return &mytube.Playlist{
		ID:     playlist.ID,
		Title:  playlist.Title,
		Author: playlist.Author,
		Videos: p.newIterator(playlist.Videos),
	}, nil
}

// ChannelPlaylists scrapes the playlists listed on a channel's playlist page, in page order.
func (p *Provider) ChannelPlaylists(ctx context.Context, channel string) ([]mytube.PlaylistCandidate, error) {
	channelURL, err := p.channelURL(channel)
	if err != nil {
		return nil, err
	}
	doc, err := p.fetchDocument(ctx, channelURL+"/playlists")
	if err != nil {
		return nil, err
	}
	return parsePlaylistIndex(doc, p.baseURL), nil
}

func (p *Provider) resolveChannelID(ctx context.Context, channel string) (string, error) {
	if channel = strings.TrimSpace(channel); IsChannelID(channel) {
		return channel, nil
	}
	channelURL, err := p.channelURL(channel)
	if err != nil {
		return "", err
	}
	doc, err := p.fetchDocument(ctx, channelURL)
	if err != nil {
		return "", err
	}
	if id := parseChannelID(doc); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: no channel ID found at %s", mytube.ErrInvalidReference, channelURL)
}

func (p *Provider) fetchKeywords(ctx context.Context, videoID string) ([]string, error) {
	doc, err := p.fetchDocument(ctx, p.baseURL+"/watch?v="+videoID)
	if err != nil {
		return nil, err
	}
	return parseKeywords(doc), nil
}

func (p *Provider) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mytube.ErrInvalidReference, err)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Skips the EU cookie consent interstitial
	req.AddCookie(&http.Cookie{Name: "CONSENT", Value: "YES+cb"})
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, classify(err))
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s not found", mytube.ErrInvalidReference, pageURL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d from %s", mytube.ErrConnectivity, resp.StatusCode, pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, classify(err))
	}
	return doc, nil
}

func parseChannelID(doc *goquery.Document) string {
	for _, selector := range []string{`meta[itemprop="identifier"]`, `meta[itemprop="channelId"]`} {
		if id, ok := doc.Find(selector).First().Attr("content"); ok && IsChannelID(id) {
			return id
		}
	}
	for _, selector := range []string{`link[rel="canonical"]`, `meta[property="og:url"]`} {
		node := doc.Find(selector).First()
		href, ok := node.Attr("href")
		if !ok {
			href, _ = node.Attr("content")
		}
		if m := canonicalChannelPattern.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

func parseKeywords(doc *goquery.Document) []string {
	content, _ := doc.Find(`meta[name="keywords"]`).First().Attr("content")
	var keywords []string
	for _, k := range strings.Split(content, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// parsePlaylistIndex reads playlist links from rendered markup (a#video-title) and from the ytInitialData blob that
// the page renders them from.
func parsePlaylistIndex(doc *goquery.Document, baseURL string) []mytube.PlaylistCandidate {
	var candidates []mytube.PlaylistCandidate
	seen := make(map[string]bool)
	add := func(title string, href string) {
		title = strings.TrimSpace(title)
		if title == "" || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = baseURL + href
		}
		if seen[href] {
			return
		}
		seen[href] = true
		candidates = append(candidates, mytube.PlaylistCandidate{Title: title, URL: href})
	}

	doc.Find("a#video-title").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		title, ok := s.Attr("title")
		if !ok {
			title = s.Text()
		}
		add(title, href)
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		script := s.Text()
		if !strings.Contains(script, initialDataMarker) {
			return
		}
		data, err := extractInitialData(script)
		if err != nil {
			return
		}
		walkPlaylists(data, func(id string, title string) {
			add(title, "/playlist?list="+id)
		})
	})
	return candidates
}

// extractInitialData decodes the JSON object assigned to ytInitialData in a script body.
func extractInitialData(script string) (any, error) {
	idx := strings.Index(script, initialDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("%s not found", initialDataMarker)
	}
	start := strings.IndexByte(script[idx:], '{')
	if start < 0 {
		return nil, fmt.Errorf("%s has no object", initialDataMarker)
	}
	var data any
	if err := json.NewDecoder(strings.NewReader(script[idx+start:])).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", initialDataMarker, err)
	}
	return data, nil
}

// walkPlaylists visits every playlist renderer in the decoded page data. Arrays are walked in order; object keys are
// walked sorted so the result is deterministic.
func walkPlaylists(node any, visit func(id string, title string)) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			walkPlaylists(item, visit)
		}
	case map[string]any:
		for _, key := range []string{"gridPlaylistRenderer", "playlistRenderer"} {
			if r, ok := v[key].(map[string]any); ok {
				id, _ := r["playlistId"].(string)
				visit(id, rendererText(r["title"]))
			}
		}
		if r, ok := v["lockupViewModel"].(map[string]any); ok {
			if kind, _ := r["contentType"].(string); kind == "LOCKUP_CONTENT_TYPE_PLAYLIST" {
				id, _ := r["contentId"].(string)
				title := rendererText(lookup(r, "metadata", "lockupMetadataViewModel", "title"))
				visit(id, title)
			}
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch key {
			case "gridPlaylistRenderer", "playlistRenderer", "lockupViewModel":
				continue
			}
			walkPlaylists(v[key], visit)
		}
	}
}

func lookup(node any, path ...string) any {
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[key]
	}
	return node
}

// rendererText handles the text encodings used in page data: {"simpleText": ...}, {"runs": [{"text": ...}]} and
// {"content": ...}.
func rendererText(node any) string {
	m, ok := node.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := m["simpleText"].(string); ok {
		return s
	}
	if s, ok := m["content"].(string); ok {
		return s
	}
	var b strings.Builder
	if runs, ok := m["runs"].([]any); ok {
		for _, run := range runs {
			if text, ok := lookup(run, "text").(string); ok {
				b.WriteString(text)
			}
		}
	}
	return b.String()
}

// playlistIterator resolves playlist entries into full videos one at a time.
type playlistIterator struct {
	p       *Provider
	entries []*youtube.PlaylistEntry
	pos     int
}

func (p *Provider) newIterator(entries []*youtube.PlaylistEntry) *playlistIterator {
	return &playlistIterator{p: p, entries: entries}
}

// Next skips entries that cannot be resolved (private or removed videos), but gives up on connectivity errors.
func (it *playlistIterator) Next(ctx context.Context) (*mytube.VideoRef, error) {
	log := mytube.Logger(ctx).Sugar().Named("youtube")
	for it.pos < len(it.entries) {
		entry := it.entries[it.pos]
		it.pos++
		if err := it.p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		video, err := it.p.client.VideoFromPlaylistEntryContext(ctx, entry)
		if err != nil {
			err = classify(err)
			if ctx.Err() != nil || isConnectivity(err) {
				return nil, fmt.Errorf("failed to get video %s: %w", entry.ID, err)
			}
			log.Warnw("skipping unavailable video", "video_id", entry.ID, "title", entry.Title, "error", err)
			continue
		}
		return it.p.videoRef(ctx, video), nil
	}
	return nil, io.EOF
}
