// Package extract turns a chart page snapshot into entries. Every field has
// an ordered chain of lookups so that markup drift degrades single fields
// instead of failing the whole page.
package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/ChartGoat/internal/types"
)

// Options configures an Extractor. Zero values use the defaults.
type Options struct {
	RowLocators []Locator
	Fields      *Fields
	WatchBase   string
	ChannelBase string
}

// Extraction is the outcome of walking one snapshot.
type Extraction struct {
	Entries  []*types.Entry
	Locator  Locator
	Rows     int
	Failed   int
	Warnings []types.Warning
}

// Extractor walks chart rows and builds entries.
type Extractor struct {
	locators    []Locator
	fields      Fields
	watchBase   string
	channelBase string
	logger      *slog.Logger
}

// New creates an Extractor.
func New(opts Options, logger *slog.Logger) *Extractor {
	e := &Extractor{
		locators:    opts.RowLocators,
		watchBase:   opts.WatchBase,
		channelBase: opts.ChannelBase,
		logger:      logger.With("component", "extractor"),
	}
	if len(e.locators) == 0 {
		e.locators = DefaultRowLocators
	}
	if opts.Fields != nil {
		e.fields = *opts.Fields
	} else {
		e.fields = DefaultFields()
	}
	if e.watchBase == "" {
		e.watchBase = "https://www.youtube.com/watch"
	}
	if e.channelBase == "" {
		e.channelBase = "https://www.youtube.com"
	}
	return e
}

// Extract parses an HTML snapshot of pageURL. It returns types.ErrNoRows
// when no locator matches anything; malformed rows never produce an error.
func (e *Extractor) Extract(src, pageURL string) (*Extraction, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return &Extraction{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return e.ExtractDocument(goquery.NewDocumentFromNode(root), pageURL)
}

// ExtractDocument is Extract for an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document, pageURL string) (*Extraction, error) {
	out := &Extraction{Entries: make([]*types.Entry, 0)}

	base, _ := url.Parse(pageURL)

	rows, loc, err := e.findRows(doc, out)
	if err != nil {
		return out, err
	}
	out.Locator = loc
	out.Rows = rows.Length()

	e.logger.Debug("rows located", "locator", loc.String(), "rows", out.Rows)

	rows.Each(func(i int, row *goquery.Selection) {
		entry, err := e.safeRow(i, row, base)
		if err != nil {
			out.Failed++
			out.Warnings = append(out.Warnings, types.Warning{Stage: types.StageExtract, Message: err.Error()})
			e.logger.Warn("row skipped", "row", i, "error", err)
			return
		}
		out.Entries = append(out.Entries, entry)
	})

	return out, nil
}

// findRows tries each locator in order and returns the first non-empty
// match.
func (e *Extractor) findRows(doc *goquery.Document, out *Extraction) (*goquery.Selection, Locator, error) {
	for _, loc := range e.locators {
		rows, err := loc.Find(doc)
		if err != nil {
			out.Warnings = append(out.Warnings, types.Warning{Stage: types.StageExtract, Message: err.Error()})
			continue
		}
		if rows.Length() > 0 {
			return rows, loc, nil
		}
	}
	return nil, Locator{}, types.ErrNoRows
}

// safeRow turns a panic inside a lookup into a row-level error.
func (e *Extractor) safeRow(i int, row *goquery.Selection, base *url.URL) (entry *types.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry = nil
			err = &types.ExtractError{Row: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return e.row(i, row, base), nil
}

func (e *Extractor) row(i int, row *goquery.Selection, base *url.URL) *types.Entry {
	f := e.fields
	entry := &types.Entry{}

	var ok bool
	if entry.Rank, ok = f.Rank.Find(row); !ok {
		entry.Rank = strconv.Itoa(i + 1)
	}
	entry.Fluctuation, entry.FluctuationValue = f.fluctuation(row)
	entry.Title, _ = f.Title.Find(row)
	entry.Views, _ = f.Views.Find(row)
	entry.ChannelName, _ = f.ChannelName.Find(row)
	entry.Subscribers, _ = f.Subscribers.Find(row)
	entry.PublishedAt, _ = f.PublishedAt.Find(row)
	entry.Tags = Texts(row, f.TagSelector)

	videoLink, _ := f.VideoLink.Find(row)
	videoLink = Absolute(videoLink, base)
	videoID := ParseVideoID(videoLink)
	entry.VideoURL = WatchURL(videoLink, e.watchBase)

	if thumb, ok := f.Thumbnail.Find(row); ok {
		entry.ThumbnailURL = Absolute(thumb, base)
	} else {
		entry.ThumbnailURL = ThumbnailURL(videoID)
	}

	channelLink, _ := f.ChannelLink.Find(row)
	channelID := ParseChannelID(Absolute(channelLink, base))
	entry.ChannelURL = ChannelURL(channelID, e.channelBase)

	if img, ok := f.ChannelImage.Find(row); ok {
		entry.ChannelImageURL = Absolute(img, base)
	} else {
		entry.ChannelImageURL = AvatarURL(channelID)
	}

	return entry
}
