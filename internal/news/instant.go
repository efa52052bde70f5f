package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"bidwatch/internal/logging"
)

// instantAnswerBase is overridable in tests.
var instantAnswerBase = "https://api.duckduckgo.com"

const instantTimeout = 10 * time.Second

// NetworkError wraps a failed instant-answer fetch. Callers treat it as
// non-fatal: the search link still works without the answer.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("news: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Answer is a DuckDuckGo instant answer stripped down to what the UI shows.
type Answer struct {
	Heading  string
	Abstract string
	Source   string
	URL      string
	Related  []RelatedTopic
}

// RelatedTopic is one related-topics entry with its markup removed.
type RelatedTopic struct {
	Text string
	URL  string
}

// Empty reports whether the answer carries nothing worth showing.
func (a Answer) Empty() bool {
	return a.Abstract == "" && len(a.Related) == 0
}

type instantResponse struct {
	Heading       string         `json:"Heading"`
	AbstractText  string         `json:"AbstractText"`
	AbstractURL   string         `json:"AbstractURL"`
	AbstractSrc   string         `json:"AbstractSource"`
	RelatedTopics []relatedEntry `json:"RelatedTopics"`
}

type relatedEntry struct {
	Result   string         `json:"Result"` // anchor markup
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedEntry `json:"Topics"` // nested category groups
}

// InstantAnswer queries the DuckDuckGo instant-answer API for query. Any
// transport or decode failure comes back as a *NetworkError.
func InstantAnswer(ctx context.Context, query string) (Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, instantTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=0&skip_disambig=1",
		instantAnswerBase, url.QueryEscape(strings.TrimSpace(query)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Answer{}, &NetworkError{Op: "build request", Err: err}
	}
	req.Header.Set("User-Agent", "bidwatch/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logging.NewsError("instant answer fetch failed: %v", err)
		return Answer{}, &NetworkError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.NewsError("instant answer HTTP %d", resp.StatusCode)
		return Answer{}, &NetworkError{Op: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Answer{}, &NetworkError{Op: "read response", Err: err}
	}

	var decoded instantResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Answer{}, &NetworkError{Op: "decode response", Err: err}
	}

	answer := Answer{
		Heading:  decoded.Heading,
		Abstract: decoded.AbstractText,
		Source:   decoded.AbstractSrc,
		URL:      decoded.AbstractURL,
		Related:  flattenRelated(decoded.RelatedTopics, 5),
	}
	logging.News("instant answer for %q: abstract=%d chars, related=%d",
		query, len(answer.Abstract), len(answer.Related))
	return answer, nil
}

// flattenRelated walks the (possibly nested) related-topics list and keeps
// the first max entries that have text.
func flattenRelated(entries []relatedEntry, max int) []RelatedTopic {
	var out []RelatedTopic
	var walk func([]relatedEntry)
	walk = func(list []relatedEntry) {
		for _, e := range list {
			if len(out) >= max {
				return
			}
			if len(e.Topics) > 0 {
				walk(e.Topics)
				continue
			}
			text := e.Text
			if text == "" && e.Result != "" {
				text = stripMarkup(e.Result)
			}
			if text == "" {
				continue
			}
			out = append(out, RelatedTopic{Text: text, URL: e.FirstURL})
		}
	}
	walk(entries)
	return out
}

// stripMarkup drops HTML tags from an instant-answer Result fragment.
func stripMarkup(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}
