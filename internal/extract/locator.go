package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// LocatorKind is the selector language of a row locator.
type LocatorKind string

const (
	KindCSS   LocatorKind = "css"
	KindXPath LocatorKind = "xpath"
)

// Locator finds row elements in a document.
type Locator struct {
	Kind LocatorKind
	Expr string
}

// CSS creates a CSS row locator.
func CSS(expr string) Locator { return Locator{Kind: KindCSS, Expr: expr} }

// XPath creates an XPath row locator.
func XPath(expr string) Locator { return Locator{Kind: KindXPath, Expr: expr} }

func (l Locator) String() string { return string(l.Kind) + ":" + l.Expr }

// Find returns the matching rows in document order.
func (l Locator) Find(doc *goquery.Document) (*goquery.Selection, error) {
	switch l.Kind {
	case KindXPath:
		if len(doc.Nodes) == 0 {
			return doc.Selection, nil
		}
		// htmlquery walks the same x/net/html tree goquery holds, so the
		// matched nodes can be wrapped back into a selection.
		nodes, err := htmlquery.QueryAll(doc.Nodes[0], l.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", l.Expr, err)
		}
		return doc.FindNodes(nodes...), nil
	case KindCSS, "":
		return doc.Find(l.Expr), nil
	default:
		return nil, fmt.Errorf("unknown locator kind %q", l.Kind)
	}
}

// DefaultRowLocators is tried in order until one matches. The chart markup
// changes without notice; later entries are progressively looser guesses.
var DefaultRowLocators = []Locator{
	CSS(".chart__row"),
	CSS(".chart-list-row"),
	CSS(".video-list-item"),
	CSS(".video-item"),
	CSS(".item-card"),
	CSS(".video-card"),
	CSS("[data-rank]"),
	CSS(`[class*="rank"]`),
	CSS(`[class*="video"]`),
	CSS(`[class*="chart"]`),
	CSS(`[class*="item"]`),
	CSS(`[class*="card"]`),
	XPath("//tr"),
}
