// Package news builds external news-search links for procurement topics and
// optionally fetches DuckDuckGo instant answers. It never scrapes result
// pages; the links are meant to be opened in the user's browser.
package news

import (
	"fmt"
	"net/url"
	"strings"
)

// Engine identifies a supported external search engine.
type Engine string

const (
	EngineGoogle     Engine = "google"
	EngineBing       Engine = "bing"
	EngineDuckDuckGo Engine = "duckduckgo"
)

// DefaultEngine is used when the caller does not pick one.
const DefaultEngine = EngineGoogle

// Engines lists the supported engines in display order.
func Engines() []Engine {
	return []Engine{EngineGoogle, EngineBing, EngineDuckDuckGo}
}

// ParseEngine resolves a user-supplied engine name, tolerating case and a few
// common spellings. Unknown names fall back to the default.
func ParseEngine(name string) Engine {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "google", "google-news", "g":
		return EngineGoogle
	case "bing", "bing-news", "b":
		return EngineBing
	case "duckduckgo", "ddg", "duck":
		return EngineDuckDuckGo
	default:
		return DefaultEngine
	}
}

// SearchURL returns the news-search URL for query on the given engine. The
// query is always percent-encoded; an empty query yields the engine's news
// front page.
func SearchURL(engine Engine, query string) string {
	q := url.QueryEscape(strings.TrimSpace(query))
	switch engine {
	case EngineBing:
		if q == "" {
			return "https://www.bing.com/news"
		}
		return fmt.Sprintf("https://www.bing.com/news/search?q=%s", q)
	case EngineDuckDuckGo:
		if q == "" {
			return "https://duckduckgo.com/?iar=news"
		}
		return fmt.Sprintf("https://duckduckgo.com/?q=%s&iar=news&ia=news", q)
	default:
		if q == "" {
			return "https://news.google.com"
		}
		return fmt.Sprintf("https://news.google.com/search?q=%s", q)
	}
}

// ContractSearchURL builds a query from the parts of an award record that
// identify it in news coverage: awardee plus organization works better than
// the full award title.
func ContractSearchURL(engine Engine, awardee, organization string) string {
	parts := make([]string, 0, 2)
	if a := strings.TrimSpace(awardee); a != "" {
		parts = append(parts, fmt.Sprintf("%q", a))
	}
	if o := strings.TrimSpace(organization); o != "" {
		parts = append(parts, fmt.Sprintf("%q", o))
	}
	return SearchURL(engine, strings.Join(parts, " "))
}
