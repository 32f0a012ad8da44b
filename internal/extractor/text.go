package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blockTags = map[string]struct{}{
	"article": {}, "blockquote": {}, "br": {}, "div": {}, "h1": {}, "h2": {},
	"h3": {}, "h4": {}, "h5": {}, "h6": {}, "li": {}, "ol": {}, "p": {},
	"pre": {}, "section": {}, "table": {}, "tr": {}, "ul": {},
}

// textWithNewlines flattens a selection into plain text, separating block
// elements with newlines and trimming every line.
func textWithNewlines(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		appendNodeText(n, &b)
	}

	lines := strings.Split(b.String(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

func appendNodeText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendNodeText(c, b)
	}

	if n.Type == html.ElementNode {
		if _, ok := blockTags[n.Data]; ok {
			b.WriteByte('\n')
		}
	}
}
