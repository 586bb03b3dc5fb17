package extract

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	thumbnailTemplate = "https://i.ytimg.com/vi/%s/hqdefault.jpg"
	avatarTemplate    = "https://yt3.ggpht.com/ytc/%s=s88-c-k-c0x00ffffff-no-rj"
)

var cssURLRe = regexp.MustCompile(`url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// ParseVideoID pulls a video identifier out of a link. It understands
// watch?v= links, youtu.be short links and /video/ID paths, and otherwise
// falls back to the last path segment.
func ParseVideoID(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if strings.HasSuffix(u.Host, "youtu.be") {
		return firstSegment(u.Path)
	}
	if i := strings.Index(u.Path, "/video/"); i >= 0 {
		return firstSegment(u.Path[i+len("/video/"):])
	}

	last := path.Base(strings.TrimRight(u.Path, "/"))
	if last == "." || last == "/" {
		return ""
	}
	return last
}

// CanonicalWatchURL strips every query parameter except v from a watch
// link. Links without a v parameter are returned unchanged.
func CanonicalWatchURL(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	id := u.Query().Get("v")
	if id == "" {
		return href
	}
	u.RawQuery = url.Values{"v": {id}}.Encode()
	u.Fragment = ""
	return u.String()
}

// WatchURL builds the watch address for a video. Links that already are
// watch links keep their host; anything else is rebuilt on watchBase.
func WatchURL(href, watchBase string) string {
	id := ParseVideoID(href)
	if id == "" {
		return ""
	}
	if u, err := url.Parse(href); err == nil && u.Query().Get("v") != "" {
		return CanonicalWatchURL(href)
	}
	return watchBase + "?v=" + url.QueryEscape(id)
}

// ThumbnailURL synthesizes the default thumbnail for a video id.
func ThumbnailURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return fmt.Sprintf(thumbnailTemplate, videoID)
}

// ParseChannelID pulls a channel identifier out of a channel link.
func ParseChannelID(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || href == "" {
		return ""
	}
	if id := u.Query().Get("channelId"); id != "" {
		return id
	}
	for _, marker := range []string{"/channel/", "/c/", "/user/"} {
		if i := strings.Index(u.Path, marker); i >= 0 {
			return firstSegment(u.Path[i+len(marker):])
		}
	}
	return ""
}

// ChannelURL builds the channel page address. UC-prefixed ids are
// canonical channel ids; anything else is treated as a custom name.
func ChannelURL(channelID, channelBase string) string {
	if channelID == "" {
		return ""
	}
	if strings.HasPrefix(channelID, "UC") {
		return channelBase + "/channel/" + channelID
	}
	return channelBase + "/c/" + channelID
}

// AvatarURL synthesizes a channel avatar address from a channel id.
func AvatarURL(channelID string) string {
	if channelID == "" {
		return ""
	}
	return fmt.Sprintf(avatarTemplate, channelID)
}

// CSSURL extracts the first url(...) from a CSS value such as a
// background-image declaration.
func CSSURL(value string) string {
	m := cssURLRe.FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Absolute makes a link absolute: protocol-relative links get https and
// relative links resolve against base.
func Absolute(link string, base *url.URL) string {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasPrefix(link, "data:") {
		return link
	}
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if u.IsAbs() || base == nil {
		return link
	}
	return base.ResolveReference(u).String()
}

func firstSegment(p string) string {
	p = strings.TrimLeft(p, "/")
	if i := strings.IndexAny(p, "/?#"); i >= 0 {
		p = p[:i]
	}
	return p
}
