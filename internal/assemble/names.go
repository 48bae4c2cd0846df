// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxStemLen bounds the document stem used in image file names so batch
// output stays readable.
const maxStemLen = 20

// Stem derives the document stem from a PDF path: base name without
// extension, truncated to maxStemLen runes.
func Stem(pdfPath string) string {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	runes := []rune(base)
	if len(runes) > maxStemLen {
		return string(runes[:maxStemLen])
	}
	return base
}

// imageFileName names an extracted image: document stem, 1-based page,
// 1-based per-page ordinal.
func imageFileName(stem string, pageIndex, ordinal int) string {
	return fmt.Sprintf("%s_p%d_img%d.png", stem, pageIndex+1, ordinal+1)
}

// uniqueStems maps each PDF path to a batch-unique stem. Stems that
// collide after truncation get a numeric suffix in path order; a
// generated suffix is re-checked so it cannot shadow a genuine stem
// like "doc-2" appearing elsewhere in the batch.
func uniqueStems(pdfPaths []string) map[string]string {
	out := make(map[string]string, len(pdfPaths))
	seen := make(map[string]int, len(pdfPaths))
	for _, p := range pdfPaths {
		stem := Stem(p)
		seen[stem]++
		if n := seen[stem]; n > 1 {
			for {
				candidate := fmt.Sprintf("%s-%d", stem, n)
				if seen[candidate] == 0 {
					seen[candidate]++
					stem = candidate
					break
				}
				n++
			}
		}
		out[p] = stem
	}
	return out
}
