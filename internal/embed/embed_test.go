package embed

import (
	"errors"
	"testing"
)

func TestNormalizeSupported(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "youtube watch link",
			link: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "https://www.youtube.com/embed/dQw4w9WgXcQ",
		},
		{
			name: "youtube watch link with extra params",
			link: "https://www.youtube.com/watch?v=ABC123&t=10",
			want: "https://www.youtube.com/embed/ABC123",
		},
		{
			name: "youtube short link",
			link: "https://youtu.be/ABC123",
			want: "https://www.youtube.com/embed/ABC123",
		},
		{
			name: "youtube short link with query",
			link: "https://youtu.be/ABC123?si=xyz",
			want: "https://www.youtube.com/embed/ABC123",
		},
		{
			name: "rutube video",
			link: "https://rutube.ru/video/abc123DEF/",
			want: "https://rutube.ru/play/embed/abc123DEF",
		},
		{
			name: "rutube video without trailing slash",
			link: "http://rutube.ru/video/abc123DEF",
			want: "https://rutube.ru/play/embed/abc123DEF",
		},
		{
			name: "rutube video with query",
			link: "https://rutube.ru/video/abc123DEF/?r=plwd",
			want: "https://rutube.ru/play/embed/abc123DEF",
		},
		{
			name: "mailru mail video",
			link: "https://my.mail.ru/mail/someuser/video/123.html",
			want: "https://my.mail.ru/mail/someuser/video/embed/_myvideo/123.html",
		},
		{
			name: "mailru community video with _myvideo",
			link: "https://my.mail.ru/community/somegroup/video/_myvideo/456.html",
			want: "https://my.mail.ru/community/somegroup/video/embed/_myvideo/456.html",
		},
		{
			name: "ok video",
			link: "https://ok.ru/video/1234567890",
			want: "https://ok.ru/videoembed/1234567890",
		},
		{
			name: "vk embed link passes through unchanged",
			link: "https://vk.com/video_ext.php?oid=-123&id=456&hd=2",
			want: "https://vk.com/video_ext.php?oid=-123&id=456&hd=2",
		},
		{
			name: "surrounding whitespace is trimmed",
			link: "  https://youtu.be/ABC123  ",
			want: "https://www.youtube.com/embed/ABC123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.link)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.link, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}

func TestNormalizeUnsupported(t *testing.T) {
	tests := []struct {
		name string
		link string
	}{
		{"empty string", ""},
		{"random text", "hello world"},
		{"unrelated url", "https://example.com/watch?v=nope"},
		{"unrelated url without scheme", "example.com/video/123"},
		{"youtube watch page without id", "https://www.youtube.com/watch?v="},
		{"rutube non-alphanumeric id", "https://rutube.ru/video/abc-def/"},
		{"rutube extra path segment", "https://rutube.ru/video/abc123/extra/"},
		{"ok non-numeric id", "https://ok.ru/video/notdigits"},
		{"mailru wrong section", "https://my.mail.ru/inbox/user/video/123.html"},
		{"mailru missing html suffix", "https://my.mail.ru/mail/user/video/123"},
		{"vk regular watch page", "https://vk.com/video-123_456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.link)
			if !errors.Is(err, ErrUnsupportedLink) {
				t.Fatalf("Normalize(%q) = (%q, %v), want ErrUnsupportedLink", tt.link, got, err)
			}
		})
	}
}

// Re-applying Normalize to its own output must never oscillate: either the
// output is a fixed point (VK embeds) or it is stably unsupported.
func TestNormalizeRoundTrip(t *testing.T) {
	inputs := []string{
		"https://www.youtube.com/watch?v=ABC123&t=10",
		"https://youtu.be/ABC123?si=xyz",
		"https://rutube.ru/video/abc123DEF/",
		"https://my.mail.ru/mail/someuser/video/123.html",
		"https://ok.ru/video/1234567890",
		"https://vk.com/video_ext.php?oid=-123&id=456",
	}

	for _, link := range inputs {
		first, err := Normalize(link)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", link, err)
		}

		second, err := Normalize(first)
		if err != nil {
			// Stable rejection: applying again must also reject
			if _, err2 := Normalize(first); !errors.Is(err2, ErrUnsupportedLink) {
				t.Errorf("Normalize(%q): rejection is not stable", first)
			}
			continue
		}

		if second != first {
			t.Errorf("Normalize(%q) = %q, not a fixed point of %q", first, second, link)
		}
	}
}

func TestNormalizeNeverPanics(t *testing.T) {
	inputs := []string{
		"youtube.com/watch?v=",
		"youtu.be/",
		"v=",
		"https://",
		"vk.com/video_ext.php",
		"\x00\xff",
	}

	for _, link := range inputs {
		// Any outcome is fine as long as it is a value, not a panic
		_, _ = Normalize(link)
	}
}
