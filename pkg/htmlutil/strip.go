package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var multipleSpacesPattern = regexp.MustCompile(`[ \t\r\f\v]{2,}`)

// blockTags end a line of text when they open or close.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "tr": true, "section": true, "article": true,
}

// skippedTags have content that is never shown as text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "head": true, "title": true, "noscript": true,
}

// StripTags turns an HTML fragment into plain text. Block-level elements
// become line breaks, entities are decoded, and script or style content is
// dropped entirely. Catalog descriptions pass through here before they are
// stored so that pages can render them without further escaping concerns.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	skipDepth := 0
	z := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return normalize(b.String())
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedTags[tag] {
				switch tt {
				case html.StartTagToken:
					skipDepth++
					b.WriteByte(' ')
				case html.EndTagToken:
					if skipDepth > 0 {
						skipDepth--
					}
				}
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
	}
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multipleSpacesPattern.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
