package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ChartGoat/internal/types"
)

// Fields holds one fallback chain per entry field.
type Fields struct {
	Rank         Chain
	Title        Chain
	Views        Chain
	ChannelName  Chain
	VideoLink    Chain
	Thumbnail    Chain
	ChannelLink  Chain
	ChannelImage Chain
	Subscribers  Chain
	PublishedAt  Chain

	FluctuationSelector string
	TagSelector         string
}

// DefaultFields mirrors the chart page markup, newest layout first.
func DefaultFields() Fields {
	return Fields{
		Rank: Chain{
			Text(".rank .current"),
			Text(".current--long"),
			Text(".rank-value"),
			Attr("", "data-rank"),
			Attr("[data-rank]", "data-rank"),
			Text("[data-index]"),
		},
		Title: Chain{
			Text(".title__label h3"),
			Text(".video-title"),
			Text("h3"),
			Text(`[class*="title"]`),
			Text(`a[href*="youtube"]`),
			Text(`a[href*="youtu.be"]`),
		},
		Views: Chain{
			Text(".score .fluc-label"),
			Text(".views-count"),
			Text(`[class*="view"]`),
			Text(`[class*="score"]`),
			Text(`[class*="count"]`),
		},
		ChannelName: Chain{
			Text(".channel .name"),
			Text(".channel-name"),
			Text(`[class*="channel"]`),
			Text(`[class*="author"]`),
			Text(`[class*="creator"]`),
		},
		VideoLink: Chain{
			Attr(".title__label", "href"),
			Attr("a.video-link", "href"),
			Attr(`a[href*="youtube.com/watch"]`, "href"),
			Attr(`a[href*="youtu.be"]`, "href"),
			Attr(`a[href*="/video/"]`, "href"),
		},
		Thumbnail: Chain{
			Background(".thumb"),
			Attr(".thumb img", "data-src"),
			Attr(".thumb img", "src"),
			Attr(".thumb img", "data-original"),
			ComputedBackground(".thumb"),
			Attr(`img[src*="ytimg"]`, "src"),
			Attr(`img[data-src*="ytimg"]`, "data-src"),
		},
		ChannelLink: Chain{
			Attr(".channel__wrapper", "href"),
			Attr(".channel-link", "href"),
			Attr(`a[href*="channel"]`, "href"),
			Attr(`a[class*="channel"]`, "href"),
		},
		ChannelImage: Chain{
			Attr(".channel .profile-image img", "src"),
			Attr(".channel .profile-image img", "data-src"),
			Attr(".channel .profile-image img", "data-original"),
			Attr(".channel-image img", "src"),
			Attr(`img[class*="channel"]`, "src"),
			Attr(`img[class*="profile"]`, "src"),
		},
		Subscribers: Chain{
			Text(".channel .subs__count"),
			Text(".subs__count"),
		},
		PublishedAt: Chain{
			Text(".title__date"),
		},
		FluctuationSelector: ".fluc",
		TagSelector:         ".ttags__item",
	}
}

// fluctuation reads the rank-change badge. The badge's class carries the
// direction; its .num (or .new) child carries the magnitude.
func (f Fields) fluctuation(row *goquery.Selection) (types.Fluctuation, string) {
	el := row.Find(".rank " + f.FluctuationSelector).First()
	if el.Length() == 0 {
		el = row.Find(f.FluctuationSelector).First()
	}
	if el.Length() == 0 {
		return types.FluctuationNone, ""
	}

	kind := types.FluctuationNone
	switch {
	case el.HasClass("up"):
		kind = types.FluctuationUp
	case el.HasClass("down"):
		kind = types.FluctuationDown
	case el.HasClass("new"):
		kind = types.FluctuationNew
	}

	value, _ := Chain{Text(".num"), Text(".new")}.Find(el)
	if kind == types.FluctuationNew && value == "" {
		value = "NEW"
	}
	return kind, value
}
