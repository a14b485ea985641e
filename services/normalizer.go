package services

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText converts raw crawled markup into plain text. Structural markup
// and non-content elements are stripped; the text itself is kept intact with
// no hard wrap width, so chunk boundaries are decided entirely by the
// chunker. Pure transform, no side effects.
func HTMLToText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, iframe, nav, header, footer, aside").Remove()

	text := doc.Find("body").Text()

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		// Collapse runs of whitespace inside a line, drop empty lines.
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cleaned = append(cleaned, strings.Join(fields, " "))
	}

	return strings.Join(cleaned, "\n"), nil
}
