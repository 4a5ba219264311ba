package services

import (
	"net/url"
	"strings"

	"clipquest-backend/models"
)

// Fingerprint normalizes a video URL into a stable identity key. Two URLs
// pointing at the same logical video (differing scheme, www prefix, tracking
// query params, fragment, trailing slash) produce the same fingerprint.
// Malformed input is returned as an opaque key; uniqueness only matters for
// well-formed platform URLs.
func Fingerprint(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimSuffix(u.EscapedPath(), "/")

	return host + path
}

// VideoIdentifiers are the handle and video id embedded in a platform URL.
// Either field may be empty when the URL does not carry it.
type VideoIdentifiers struct {
	Username string
	VideoID  string
}

// ParseVideoURL extracts the author handle and video id from a platform
// share URL. Handles are lowercased with the leading @ stripped.
//
// Recognized shapes:
//
//	tiktok:    /@user/video/123
//	instagram: /p/ID, /reel/ID, /reels/ID, optionally /user/p/ID
//	youtube:   /shorts/ID, channel taken from an /@channel path segment
func ParseVideoURL(rawURL string, platform models.Platform) VideoIdentifiers {
	var ids VideoIdentifiers

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ids
	}

	segments := splitPath(u.EscapedPath())
	if len(segments) == 0 {
		return ids
	}

	switch platform {
	case models.PlatformTikTok:
		for i, seg := range segments {
			if strings.HasPrefix(seg, "@") {
				ids.Username = normalizeHandle(seg)
				if i+2 < len(segments) && segments[i+1] == "video" {
					ids.VideoID = segments[i+2]
				}
				break
			}
		}
	case models.PlatformInstagram:
		for i, seg := range segments {
			if seg == "p" || seg == "reel" || seg == "reels" {
				if i+1 < len(segments) {
					ids.VideoID = segments[i+1]
				}
				if i > 0 {
					ids.Username = normalizeHandle(segments[i-1])
				}
				break
			}
		}
	case models.PlatformYouTube:
		for i, seg := range segments {
			if strings.HasPrefix(seg, "@") {
				ids.Username = normalizeHandle(seg)
			}
			if seg == "shorts" && i+1 < len(segments) {
				ids.VideoID = segments[i+1]
			}
		}
	}

	return ids
}

func splitPath(p string) []string {
	var segments []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func normalizeHandle(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "@"))
}
