// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/pagemill/pkg/types"
)

// maxCaptionLen bounds image alt text. Vision models occasionally return
// multi-paragraph descriptions; alt text past this length adds nothing.
const maxCaptionLen = 100

// placeholderRE matches Markdown image syntax whose target contains the
// reserved placeholder marker, e.g. ![A chart](image_placeholder). The
// transcription prompt instructs the model to emit this form wherever the
// page shows an image or diagram.
var placeholderRE = regexp.MustCompile(`(?i)!\[[^\]]*\]\([^)]*placeholder[^)]*\)`)

// MergePlaceholders substitutes the transcription's image placeholders with
// real image references, one per extracted image in extraction order. When
// more images exist than placeholders the excess is appended at the end,
// each preceded by a blank line. Placeholders left over after all images
// are placed are deleted outright: the transcription referenced images the
// page does not actually contain, and a broken reference is strictly worse
// than an absent one.
func MergePlaceholders(text string, images []types.ImageRef) string {
	for _, img := range images {
		md := imageMarkdown(img)
		if loc := placeholderRE.FindStringIndex(text); loc != nil {
			text = text[:loc[0]] + md + text[loc[1]:]
		} else {
			text += "\n\n" + md + "\n"
		}
	}
	return placeholderRE.ReplaceAllString(text, "")
}

// imageMarkdown renders one image reference: the caption, newline-stripped
// and truncated, as alt text; the path percent-encoded with separators kept
// literal as the target.
func imageMarkdown(img types.ImageRef) string {
	caption := strings.TrimSpace(strings.ReplaceAll(img.Caption, "\n", " "))
	if r := []rune(caption); len(r) > maxCaptionLen {
		caption = string(r[:maxCaptionLen])
	}
	return "![" + caption + "](" + encodePath(img.Path) + ")"
}

// encodePath percent-encodes a slash-separated relative path for use as a
// Markdown link target. Separators stay unescaped; parentheses are encoded
// because they terminate Markdown link syntax.
func encodePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		s = url.PathEscape(s)
		s = strings.ReplaceAll(s, "(", "%28")
		s = strings.ReplaceAll(s, ")", "%29")
		segs[i] = s
	}
	return strings.Join(segs, "/")
}
