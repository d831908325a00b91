package websearch

import "github.com/sukalov/songquiz/internal/browser"

func elements(hrefs ...string) []browser.Element {
	out := make([]browser.Element, len(hrefs))
	for i, href := range hrefs {
		out[i] = browser.Element{Href: href}
	}
	return out
}
