// Package wiki wraps the MediaWiki Action API: full-text search plus
// one-page summaries with disambiguation handling.
//
// There is no MediaWiki client library worth the dependency for the two
// calls we make, so this is a thin hand-built JSON client in the usual
// shape: a struct holding the base URL and an *http.Client, one method per
// remote operation, context on everything.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultAPIURL is the English Wikipedia Action API endpoint. Override via
// config (WIKI_API_URL) to point at another wiki or a test server.
const DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

// SearchLimit caps how many candidate titles Search returns.
const SearchLimit = 5

// userAgent identifies us to the API, per the Wikimedia etiquette policy.
const userAgent = "wikishelf/1.0 (article curation backend)"

// ErrPageNotFound means the requested title has no page.
var ErrPageNotFound = errors.New("wiki: page not found")

// DisambiguationError means the title resolved to a disambiguation page
// rather than an article. Options lists the linked candidate titles, best
// guess first.
type DisambiguationError struct {
	Title   string
	Options []string
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("wiki: %q is a disambiguation page (%d options)", e.Title, len(e.Options))
}

// Summary is a resolved page: canonical title, canonical URL, and a short
// plain-text extract.
type Summary struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Extract string `json:"summary"`
}

// Client talks to a MediaWiki Action API endpoint.
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given api.php URL. An empty apiURL
// selects English Wikipedia.
func NewClient(apiURL string, logger *slog.Logger) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Search runs a full-text search and returns up to SearchLimit candidate
// page titles, in the API's relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(SearchLimit)},
	}

	var resp struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("wiki: searching %q: %w", query, err)
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, r := range resp.Query.Search {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

// Summary fetches a plain-text extract of at most `sentences` sentences for
// the given title, along with the page's canonical title and URL.
//
// Returns ErrPageNotFound for missing pages and *DisambiguationError when
// the title lands on a disambiguation page. Disambiguation detection rides
// on the page prop the disambiguator extension sets; the candidate options
// come from a second request for the page's article-namespace links.
func (c *Client) Summary(ctx context.Context, title string, sentences int) (*Summary, error) {
	params := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"extracts|info|pageprops"},
		"explaintext": {"1"},
		"exsentences": {strconv.Itoa(sentences)},
		"redirects":   {"1"},
		"inprop":      {"url"},
		"ppprop":      {"disambiguation"},
	}

	var resp struct {
		Query struct {
			Pages []struct {
				Title     string `json:"title"`
				Missing   bool   `json:"missing"`
				Extract   string `json:"extract"`
				FullURL   string `json:"fullurl"`
				PageProps *struct {
					Disambiguation *string `json:"disambiguation"`
				} `json:"pageprops"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("wiki: fetching summary for %q: %w", title, err)
	}

	if len(resp.Query.Pages) == 0 {
		return nil, ErrPageNotFound
	}
	page := resp.Query.Pages[0]
	if page.Missing {
		return nil, ErrPageNotFound
	}

	if page.PageProps != nil && page.PageProps.Disambiguation != nil {
		options, err := c.links(ctx, page.Title)
		if err != nil {
			// Couldn't fetch options, still a disambiguation failure,
			// just with nothing to retry against.
			options = nil
		}
		return nil, &DisambiguationError{Title: page.Title, Options: options}
	}

	return &Summary{
		Title:   page.Title,
		URL:     page.FullURL,
		Extract: page.Extract,
	}, nil
}

// ResolveSummaries resolves candidate titles into summaries, preserving
// input order.
//
// Per-candidate policy (deliberately forgiving, a search result page with
// three good hits beats an error):
//   - not found            → skip silently
//   - disambiguation       → retry once with the first option
//   - retry fails (any way) → skip silently
func (c *Client) ResolveSummaries(ctx context.Context, titles []string, sentences int) []Summary {
	summaries := make([]Summary, 0, len(titles))

	for _, title := range titles {
		s, err := c.Summary(ctx, title, sentences)
		if err != nil {
			var de *DisambiguationError
			if errors.As(err, &de) && len(de.Options) > 0 {
				if retried, retryErr := c.Summary(ctx, de.Options[0], sentences); retryErr == nil {
					summaries = append(summaries, *retried)
				} else {
					c.logger.Debug("skipping unresolved disambiguation",
						slog.String("title", title),
						slog.String("option", de.Options[0]),
					)
				}
			} else {
				c.logger.Debug("skipping candidate",
					slog.String("title", title),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		summaries = append(summaries, *s)
	}

	return summaries
}

// links returns the article-namespace links of a page, the candidate
// targets of a disambiguation page.
func (c *Client) links(ctx context.Context, title string) ([]string, error) {
	params := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"links"},
		"plnamespace": {"0"},
		"pllimit":     {"20"},
	}

	var resp struct {
		Query struct {
			Pages []struct {
				Links []struct {
					Title string `json:"title"`
				} `json:"links"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Query.Pages) == 0 {
		return nil, nil
	}
	options := make([]string, 0, len(resp.Query.Pages[0].Links))
	for _, l := range resp.Query.Pages[0].Links {
		options = append(options, l.Title)
	}
	return options, nil
}

// get performs one API request and decodes the JSON response into out.
// format/formatversion are pinned here so every call gets the flat
// formatversion=2 shapes the response structs above expect.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message, then bail.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
