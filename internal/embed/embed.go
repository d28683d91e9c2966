// Package embed rewrites video watch links into iframe-safe embed URLs.
package embed

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnsupportedLink is returned when no provider matcher recognizes the link.
var ErrUnsupportedLink = errors.New("link is not a supported video provider")

// matcher recognizes one provider's link shape and rewrites it.
// Returns false when the link does not fit this provider.
type matcher func(link string) (string, bool)

// Matchers are tried in order, first match wins. A matcher that recognizes
// its host but cannot extract an id returns false so the link falls through
// to the final rejection.
var matchers = []matcher{
	matchYouTube,
	matchRuTube,
	matchMailRu,
	matchOK,
	matchVKEmbed,
}

// Normalize converts a watch-page link into the provider's embed URL.
// It is pure and total: any input yields either an embed URL or
// ErrUnsupportedLink, never a panic.
func Normalize(link string) (string, error) {
	link = strings.TrimSpace(link)

	for _, match := range matchers {
		if embedURL, ok := match(link); ok {
			return embedURL, nil
		}
	}

	return "", ErrUnsupportedLink
}

// SupportedProviders returns user-facing guidance for rejected links.
func SupportedProviders() string {
	return "Supported providers:\n" +
		"- YouTube, RuTube, Mail.ru, OK.ru (regular watch links)\n" +
		"- VK ONLY as embed links (https://vk.com/video_ext.php?...)"
}

func matchYouTube(link string) (string, bool) {
	const (
		watchMarker = "youtube.com/watch?v="
		shortMarker = "youtu.be/"
	)

	var id string
	switch {
	case strings.Contains(link, watchMarker):
		id = link[strings.LastIndex(link, "v=")+len("v="):]
		id, _, _ = strings.Cut(id, "&")
	case strings.Contains(link, shortMarker):
		id = link[strings.LastIndex(link, shortMarker)+len(shortMarker):]
		id, _, _ = strings.Cut(id, "?")
	}

	if id == "" {
		return "", false
	}
	return "https://www.youtube.com/embed/" + id, true
}

var rutubeRe = regexp.MustCompile(`^https?://rutube\.ru/video/([a-zA-Z0-9]+)/?(?:\?.*)?$`)

func matchRuTube(link string) (string, bool) {
	m := rutubeRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return "https://rutube.ru/play/embed/" + m[1], true
}

var mailRe = regexp.MustCompile(`^https?://my\.mail\.ru/(mail|community)/([^/]+)/video/(?:_myvideo/)?(\d+)\.html(?:\?.*)?$`)

func matchMailRu(link string) (string, bool) {
	m := mailRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	pathType, username, videoID := m[1], m[2], m[3]
	return "https://my.mail.ru/" + pathType + "/" + username + "/video/embed/_myvideo/" + videoID + ".html", true
}

var okRe = regexp.MustCompile(`^https?://ok\.ru/video/(\d+)/?(?:\?.*)?$`)

func matchOK(link string) (string, bool) {
	m := okRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return "https://ok.ru/videoembed/" + m[1], true
}

// VK is accepted only in already-embeddable form. Regular VK watch pages
// cannot be rewritten without talking to VK, so they stay unsupported.
func matchVKEmbed(link string) (string, bool) {
	if strings.Contains(link, "vk.com/video_ext.php") {
		return link, true
	}
	return "", false
}
