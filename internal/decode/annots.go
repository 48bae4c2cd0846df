// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decode

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pagemill/pkg/types"
)

// linkAnnotations walks a page's /Annots array and returns the link
// annotations it can classify, with anchor text pulled from the page's
// text layer.
func linkAnnotations(page pdf.Page) []types.RawLink {
	annots := page.V.Key("Annots")
	if annots.Kind() != pdf.Array {
		return nil
	}

	var texts []pdf.Text
	if content := page.Content(); len(content.Text) > 0 {
		texts = content.Text
	}

	var out []types.RawLink
	for i := 0; i < annots.Len(); i++ {
		a := annots.Index(i)
		if a.Key("Subtype").Name() != "Link" {
			continue
		}
		rect, ok := annotRect(a.Key("Rect"))
		if !ok {
			continue
		}
		link, ok := classifyLink(a)
		if !ok {
			continue
		}
		link.Rect = rect
		link.Text = textInRect(texts, rect)
		out = append(out, link)
	}
	return out
}

// classifyLink maps an annotation dict to a raw link. /A /URI actions
// become URI links, /A /GoTo actions and direct /Dest entries become
// destination links. Anything else (JavaScript actions, launch actions)
// is ignored.
func classifyLink(a pdf.Value) (types.RawLink, bool) {
	if action := a.Key("A"); action.Kind() == pdf.Dict {
		switch action.Key("S").Name() {
		case "URI":
			uri := action.Key("URI").RawString()
			if uri == "" {
				return types.RawLink{}, false
			}
			return types.RawLink{Kind: types.LinkURI, URI: uri, TargetPage: -1}, true
		case "GoTo":
			return destLink(action.Key("D"))
		}
		return types.RawLink{}, false
	}
	if dest := a.Key("Dest"); !dest.IsNull() {
		return destLink(dest)
	}
	return types.RawLink{}, false
}

// destLink classifies a destination value. Name and string destinations
// carry their identifier through verbatim. Array destinations reference a
// page object directly, but the text-layer reader exposes no page
// identity for dictionary values, so those stay unresolved and the
// resolver drops them.
func destLink(d pdf.Value) (types.RawLink, bool) {
	switch d.Kind() {
	case pdf.Name:
		return types.RawLink{Kind: types.LinkNamed, Name: d.Name(), TargetPage: -1}, true
	case pdf.String:
		return types.RawLink{Kind: types.LinkNamed, Name: d.RawString(), TargetPage: -1}, true
	case pdf.Array:
		return types.RawLink{Kind: types.LinkGoToPage, TargetPage: -1}, true
	}
	return types.RawLink{}, false
}

// annotRect parses a /Rect array into a normalized rectangle. PDF allows
// the corners in any order.
func annotRect(v pdf.Value) (types.Rect, bool) {
	if v.Kind() != pdf.Array || v.Len() != 4 {
		return types.Rect{}, false
	}
	var vals [4]float64
	for i := range vals {
		e := v.Index(i)
		switch e.Kind() {
		case pdf.Integer:
			vals[i] = float64(e.Int64())
		case pdf.Real:
			vals[i] = e.Float64()
		default:
			return types.Rect{}, false
		}
	}
	return types.Rect{
		Llx: math.Min(vals[0], vals[2]),
		Lly: math.Min(vals[1], vals[3]),
		Urx: math.Max(vals[0], vals[2]),
		Ury: math.Max(vals[1], vals[3]),
	}, true
}

// textInRect assembles the anchor text for a link region: every glyph
// whose origin falls inside the rectangle, in reading order. Glyphs on
// the same baseline are joined directly, with a space when the horizontal
// gap is wide enough to be a word break; line breaks collapse to a
// single space.
func textInRect(texts []pdf.Text, r types.Rect) string {
	var sel []pdf.Text
	for _, t := range texts {
		if r.Contains(t.X, t.Y) {
			sel = append(sel, t)
		}
	}
	if len(sel) == 0 {
		return ""
	}

	// PDF Y grows upward, so higher Y comes first.
	sort.SliceStable(sel, func(i, j int) bool {
		if sel[i].Y != sel[j].Y {
			return sel[i].Y > sel[j].Y
		}
		return sel[i].X < sel[j].X
	})

	var b strings.Builder
	b.WriteString(sel[0].S)
	prev := sel[0]
	for _, t := range sel[1:] {
		switch {
		case !sameBaseline(prev, t):
			b.WriteByte(' ')
		case t.X-(prev.X+prev.W) > wordGap(prev):
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prev = t
	}
	return b.String()
}

func sameBaseline(a, b pdf.Text) bool {
	tol := a.FontSize / 2
	if tol <= 0 {
		tol = 2
	}
	return math.Abs(a.Y-b.Y) < tol
}

func wordGap(t pdf.Text) float64 {
	gap := 0.3 * t.FontSize
	if gap < 1 {
		gap = 1
	}
	return gap
}
