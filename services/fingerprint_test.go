package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clipquest-backend/models"
)

func TestFingerprintIgnoresTrackingVariations(t *testing.T) {
	base := "https://www.tiktok.com/@alice/video/7301234567890"
	variants := []string{
		"https://www.tiktok.com/@alice/video/7301234567890?is_from_webapp=1&sender_device=pc",
		"http://tiktok.com/@alice/video/7301234567890",
		"https://tiktok.com/@alice/video/7301234567890/",
		"https://www.tiktok.com/@alice/video/7301234567890#comments",
	}

	want := Fingerprint(base)
	for _, v := range variants {
		assert.Equal(t, want, Fingerprint(v), "variant %s", v)
	}
}

func TestFingerprintDistinguishesDifferentVideos(t *testing.T) {
	a := Fingerprint("https://www.tiktok.com/@alice/video/111")
	b := Fingerprint("https://www.tiktok.com/@alice/video/222")
	c := Fingerprint("https://www.tiktok.com/@bob/video/111")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestFingerprintMalformedInputIsOpaque(t *testing.T) {
	assert.Equal(t, "not a url at all", Fingerprint("  not a url at all "))
	assert.Equal(t, "", Fingerprint(""))
}

func TestParseVideoURL(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		platform models.Platform
		want     VideoIdentifiers
	}{
		{
			name:     "tiktok",
			url:      "https://www.tiktok.com/@Alice/video/7301234567890",
			platform: models.PlatformTikTok,
			want:     VideoIdentifiers{Username: "alice", VideoID: "7301234567890"},
		},
		{
			name:     "instagram reel with username",
			url:      "https://www.instagram.com/alice/reel/Cxyz123/",
			platform: models.PlatformInstagram,
			want:     VideoIdentifiers{Username: "alice", VideoID: "Cxyz123"},
		},
		{
			name:     "instagram post without username",
			url:      "https://www.instagram.com/p/Cxyz123/",
			platform: models.PlatformInstagram,
			want:     VideoIdentifiers{VideoID: "Cxyz123"},
		},
		{
			name:     "youtube short with channel",
			url:      "https://www.youtube.com/@AliceClips/shorts/dQw4w9WgXcQ",
			platform: models.PlatformYouTube,
			want:     VideoIdentifiers{Username: "aliceclips", VideoID: "dQw4w9WgXcQ"},
		},
		{
			name:     "youtube short without channel",
			url:      "https://youtube.com/shorts/dQw4w9WgXcQ",
			platform: models.PlatformYouTube,
			want:     VideoIdentifiers{VideoID: "dQw4w9WgXcQ"},
		},
		{
			name:     "wrong shape yields nothing",
			url:      "https://www.tiktok.com/explore",
			platform: models.PlatformTikTok,
			want:     VideoIdentifiers{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseVideoURL(tc.url, tc.platform))
		})
	}
}
