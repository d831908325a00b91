// Package htmltext converts HTML fragments taken from rendered pages into plain text.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipped elements never contribute text
var skipped = map[string]bool{"script": true, "style": true, "noscript": true, "template": true}

func parse(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()
	return doc, nil
}

// WithLineBreaks keeps visual line breaks: every <br> becomes "\n" before the
// remaining markup is stripped. Text nodes are concatenated as they are.
func WithLineBreaks(fragment string) (string, error) {
	doc, err := parse(fragment)
	if err != nil {
		return "", err
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return doc.Text(), nil
}

// Compact joins all trimmed, non-empty text nodes with no separator.
// It is the cheap "how much real text is in here" measure.
func Compact(fragment string) (string, error) {
	return joinTextNodes(fragment, "")
}

// Lines joins all trimmed, non-empty text nodes with "\n".
func Lines(fragment string) (string, error) {
	return joinTextNodes(fragment, "\n")
}

func joinTextNodes(fragment, sep string) (string, error) {
	doc, err := parse(fragment)
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(parts, sep), nil
}
