package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/mytube/mytube"
)

var (
	channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)
	videoIDPattern   = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
)

// ExtractVideoID gets the video ID from a YouTube URL or a bare ID.
//
// Allowed URL formats, with or without the scheme:
//
//	http(s?)://(www|m|music).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m|music).youtube.com/(v|shorts|embed|live|e)/{VIDEO_ID}
//	http(s?)://(www.)youtube-nocookie.com/embed/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
//
// URLs on other hosts are handed to the client library's own extraction, and accepted only if that yields a
// well-formed ID.
func ExtractVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty video URL", mytube.ErrInvalidReference)
	}
	if !strings.Contains(s, "/") {
		id, err := youtube.ExtractVideoID(s)
		if err != nil {
			return "", fmt.Errorf("%w: %w", mytube.ErrInvalidReference, err)
		}
		return id, nil
	}
	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", mytube.ErrInvalidReference, err)
	}
	var id string
	known := true
	host := parsedURL.Hostname()
	for _, sub := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, sub)
	}
	switch host {
	case "youtube.com", "youtube-nocookie.com":
		prefix, rest, ok := strings.Cut(strings.TrimPrefix(parsedURL.Path, "/"), "/")
		switch {
		case ok && (prefix == "v" || prefix == "shorts" || prefix == "embed" || prefix == "live" || prefix == "e"):
			id = strings.SplitN(rest, "/", 2)[0]
		case parsedURL.Path == "/watch" || parsedURL.Path == "/details":
			if !parsedURL.Query().Has("v") {
				return "", fmt.Errorf("%w: missing ?v= query parameter", mytube.ErrInvalidReference)
			}
			id = parsedURL.Query().Get("v")
		}
	case "youtu.be":
		id = strings.Trim(parsedURL.Path, "/")
	default:
		known = false
	}
	if id == "" && !known {
		id, err = youtube.ExtractVideoID(s)
		if err != nil || !videoIDPattern.MatchString(id) {
			return "", fmt.Errorf("%w: could not extract video ID from %q", mytube.ErrInvalidReference, s)
		}
	}
	if id == "" {
		return "", fmt.Errorf("%w: could not extract video ID", mytube.ErrInvalidReference)
	}
	return id, nil
}

// IsChannelID reports whether s looks like a "UC..." channel ID.
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

// uploadsPlaylistID gives the ID of the playlist holding all of a channel's uploads, newest first.
func uploadsPlaylistID(channelID string) string {
	return "UU" + strings.TrimPrefix(channelID, "UC")
}

// channelURL turns a channel reference into the channel's page URL. Accepts full URLs, "@handle", "UC..." IDs,
// "c/name"-style paths, and plain custom names.
func (p *Provider) channelURL(channel string) (string, error) {
	channel = strings.TrimSpace(channel)
	switch {
	case channel == "":
		return "", fmt.Errorf("%w: empty channel name", mytube.ErrInvalidReference)
	case strings.HasPrefix(channel, "http://"), strings.HasPrefix(channel, "https://"):
		return strings.TrimRight(channel, "/"), nil
	case strings.HasPrefix(channel, "@"):
		return p.baseURL + "/" + url.PathEscape(channel), nil
	case IsChannelID(channel):
		return p.baseURL + "/channel/" + channel, nil
	case strings.HasPrefix(channel, "c/"), strings.HasPrefix(channel, "user/"), strings.HasPrefix(channel, "channel/"):
		return p.baseURL + "/" + channel, nil
	default:
		return p.baseURL + "/c/" + url.PathEscape(channel), nil
	}
}
