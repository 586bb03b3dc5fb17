package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ComputedBackgroundAttr is written onto elements by AnnotateScript so the
// static snapshot still carries the browser's computed background image.
const ComputedBackgroundAttr = "data-chartgoat-bg"

// AnnotateScript runs inside the page before the DOM is snapshotted. It
// copies computed background images that are not present inline.
const AnnotateScript = `() => {
	let n = 0;
	document.querySelectorAll('.thumb, [class*="thumb"]').forEach(el => {
		const bg = window.getComputedStyle(el).backgroundImage;
		if (bg && bg !== 'none') {
			el.setAttribute('data-chartgoat-bg', bg);
			n++;
		}
	});
	return n;
}`

// Strategy looks up one field in a row. It reports false when the row does
// not carry the field in the shape this strategy understands.
type Strategy func(row *goquery.Selection) (string, bool)

// Chain is an ordered list of strategies; the first success wins.
type Chain []Strategy

// Find applies the chain to a row.
func (c Chain) Find(row *goquery.Selection) (string, bool) {
	for _, s := range c {
		if v, ok := s(row); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Text returns the trimmed text of the first element matching selector.
func Text(selector string) Strategy {
	return func(row *goquery.Selection) (string, bool) {
		sel := row.Find(selector).First()
		if sel.Length() == 0 {
			return "", false
		}
		v := strings.Join(strings.Fields(sel.Text()), " ")
		return v, v != ""
	}
}

// Attr returns an attribute of the first element matching selector. An
// empty selector reads the row element itself.
func Attr(selector, attr string) Strategy {
	return func(row *goquery.Selection) (string, bool) {
		sel := row
		if selector != "" {
			sel = row.Find(selector).First()
		}
		v, ok := sel.Attr(attr)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
}

// Background reads url(...) out of an inline style attribute.
func Background(selector string) Strategy {
	return cssURLFrom(selector, "style")
}

// ComputedBackground reads the computed background copied by AnnotateScript.
func ComputedBackground(selector string) Strategy {
	return cssURLFrom(selector, ComputedBackgroundAttr)
}

func cssURLFrom(selector, attr string) Strategy {
	return func(row *goquery.Selection) (string, bool) {
		v, ok := Attr(selector, attr)(row)
		if !ok {
			return "", false
		}
		u := CSSURL(v)
		return u, u != ""
	}
}

// Texts collects the trimmed text of every element matching selector.
func Texts(row *goquery.Selection, selector string) []string {
	var out []string
	row.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}
