package extract

import (
	"net/url"
	"testing"
)

func TestParseVideoID(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://example.com/watch?v=XYZ123&t=5", "XYZ123"},
		{"https://www.youtube.com/watch?v=abc", "abc"},
		{"https://youtu.be/short1?si=x", "short1"},
		{"https://playboard.co/en/video/AAA111?period=daily", "AAA111"},
		{"https://example.com/shorts/last/", "last"},
		{"", ""},
		{"https://example.com/", ""},
	}
	for _, tt := range tests {
		if got := ParseVideoID(tt.href); got != tt.want {
			t.Errorf("ParseVideoID(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestCanonicalWatchURL(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://example.com/watch?v=XYZ123&t=5", "https://example.com/watch?v=XYZ123"},
		{"https://www.youtube.com/watch?list=L&v=abc#frag", "https://www.youtube.com/watch?v=abc"},
		{"https://example.com/no-id", "https://example.com/no-id"},
	}
	for _, tt := range tests {
		if got := CanonicalWatchURL(tt.href); got != tt.want {
			t.Errorf("CanonicalWatchURL(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	base := "https://www.youtube.com/watch"
	if got := WatchURL("https://playboard.co/video/AAA111", base); got != base+"?v=AAA111" {
		t.Errorf("unexpected rebuilt watch url %q", got)
	}
	if got := WatchURL("https://m.youtube.com/watch?v=B&feature=share", base); got != "https://m.youtube.com/watch?v=B" {
		t.Errorf("watch links should keep their host, got %q", got)
	}
	if got := WatchURL("", base); got != "" {
		t.Errorf("expected empty url, got %q", got)
	}
}

func TestChannelURLs(t *testing.T) {
	base := "https://www.youtube.com"
	tests := []struct {
		href    string
		id      string
		channel string
	}{
		{"https://playboard.co/en/channel/UCabc", "UCabc", base + "/channel/UCabc"},
		{"https://playboard.co/channel?channelId=UCdef", "UCdef", base + "/channel/UCdef"},
		{"https://www.youtube.com/c/someone/videos", "someone", base + "/c/someone"},
		{"https://www.youtube.com/user/legacy", "legacy", base + "/c/legacy"},
		{"https://example.com/about", "", ""},
	}
	for _, tt := range tests {
		id := ParseChannelID(tt.href)
		if id != tt.id {
			t.Errorf("ParseChannelID(%q) = %q, want %q", tt.href, id, tt.id)
		}
		if got := ChannelURL(id, base); got != tt.channel {
			t.Errorf("ChannelURL(%q) = %q, want %q", id, got, tt.channel)
		}
	}
	if got := AvatarURL(""); got != "" {
		t.Errorf("expected no avatar without channel id, got %q", got)
	}
}

func TestCSSURL(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{`background-image: url("https://i.ytimg.com/vi/a/x.jpg")`, "https://i.ytimg.com/vi/a/x.jpg"},
		{`url('//i.ytimg.com/vi/b/x.jpg')`, "//i.ytimg.com/vi/b/x.jpg"},
		{`url( /img/c.png )`, "/img/c.png"},
		{`none`, ""},
	}
	for _, tt := range tests {
		if got := CSSURL(tt.value); got != tt.want {
			t.Errorf("CSSURL(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestAbsolute(t *testing.T) {
	base, _ := url.Parse("https://playboard.co/chart/short/x")
	tests := []struct {
		link string
		want string
	}{
		{"//i.ytimg.com/a.jpg", "https://i.ytimg.com/a.jpg"},
		{"/en/video/A", "https://playboard.co/en/video/A"},
		{"https://www.youtube.com/watch?v=A", "https://www.youtube.com/watch?v=A"},
		{"data:image/gif;base64,R0l", "data:image/gif;base64,R0l"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Absolute(tt.link, base); got != tt.want {
			t.Errorf("Absolute(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
