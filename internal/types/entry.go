package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Fluctuation is the rank-change indicator shown next to a chart position.
type Fluctuation string

const (
	FluctuationNone Fluctuation = "none"
	FluctuationUp   Fluctuation = "up"
	FluctuationDown Fluctuation = "down"
	FluctuationNew  Fluctuation = "new"
)

// Entry is a single ranked video extracted from a chart page.
type Entry struct {
	Rank             string      `json:"rank"`
	Fluctuation      Fluctuation `json:"fluctuation"`
	FluctuationValue string      `json:"fluctuation_value,omitempty"`
	Title            string      `json:"title"`
	VideoURL         string      `json:"video_url,omitempty"`
	ThumbnailURL     string      `json:"thumbnail_url,omitempty"`
	Views            string      `json:"views"`
	ChannelName      string      `json:"channel_name"`
	ChannelURL       string      `json:"channel_url,omitempty"`
	ChannelImageURL  string      `json:"channel_image_url,omitempty"`
	Subscribers      string      `json:"subscribers,omitempty"`
	Tags             []string    `json:"tags,omitempty"`
	PublishedAt      string      `json:"published_at,omitempty"`
}

// RankNumber parses the rank label. Non-numeric ranks yield 0.
func (e *Entry) RankNumber() int {
	n, err := strconv.Atoi(strings.TrimSpace(e.Rank))
	if err != nil {
		return 0
	}
	return n
}

// IsNew reports whether the entry entered the chart in this period.
func (e *Entry) IsNew() bool {
	return e.Fluctuation == FluctuationNew
}

// MarshalJSON adds the derived is_new flag.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		IsNew bool `json:"is_new"`
	}{plain(e), e.IsNew()})
}

// FluctuationLabel renders the change indicator the way the chart shows it.
func (e *Entry) FluctuationLabel() string {
	switch e.Fluctuation {
	case FluctuationNew:
		return "NEW"
	case FluctuationUp:
		return "▲" + e.FluctuationValue
	case FluctuationDown:
		return "▼" + e.FluctuationValue
	default:
		return ""
	}
}

// ToFlatMap returns a flat map suitable for CSV export.
func (e *Entry) ToFlatMap() map[string]string {
	return map[string]string{
		"rank":              e.Rank,
		"fluctuation":       string(e.Fluctuation),
		"fluctuation_value": e.FluctuationValue,
		"title":             e.Title,
		"video_url":         e.VideoURL,
		"thumbnail_url":     e.ThumbnailURL,
		"views":             e.Views,
		"channel_name":      e.ChannelName,
		"channel_url":       e.ChannelURL,
		"channel_image_url": e.ChannelImageURL,
		"subscribers":       e.Subscribers,
		"tags":              strings.Join(e.Tags, "|"),
		"published_at":      e.PublishedAt,
		"is_new":            strconv.FormatBool(e.IsNew()),
	}
}

// Clone creates a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	if e.Tags != nil {
		clone.Tags = append([]string(nil), e.Tags...)
	}
	return &clone
}
