// Package lusha provides a client for the Lusha prospecting API: contact
// search by ICP filters and enrichment of selected contacts.
package lusha

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

const defaultBaseURL = "https://api.lusha.com/prospecting"

// Client defines the Lusha operations used by the pipeline.
type Client interface {
	// Search returns one page of contacts matching the preset.
	Search(ctx context.Context, preset Preset, page, size int) (*SearchResult, error)
	// SearchPages fetches up to pages pages starting at start, stopping at
	// the first empty page. Every contact carries the request id of the
	// page it came from.
	SearchPages(ctx context.Context, preset Preset, start, pages, size int) ([]Contact, error)
	// Enrich reveals contact details for ids returned by one search request.
	Enrich(ctx context.Context, requestID string, contactIDs []string) ([]Enriched, error)
}

// Contact is a search hit. Details stay hidden until enrichment.
type Contact struct {
	ContactID   string `json:"contactId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	JobTitle    string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
	RequestID   string `json:"-"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	RequestID string    `json:"requestId"`
	Contacts  []Contact `json:"data"`
	Total     int       `json:"total"`
	Page      int       `json:"-"`
}

// Enriched holds the revealed details of one contact. Email and Phone are
// the first entries of the respective lists.
type Enriched struct {
	ContactID string
	Email     string
	Phone     string
	LinkedIn  string
	AllEmails []string
	AllPhones []string
}

// Option configures the Lusha client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit overrides the default rate limit (2 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Lusha client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(2, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("lusha", "request")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sizeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type searchRequest struct {
	Pages struct {
		Page int `json:"page"`
		Size int `json:"size"`
	} `json:"pages"`
	Filters struct {
		Companies struct {
			Include struct {
				Locations         []map[string]string `json:"locations"`
				Sizes             []sizeRange         `json:"sizes"`
				MainIndustriesIDs []int               `json:"mainIndustriesIds,omitempty"`
			} `json:"include"`
		} `json:"companies"`
		Contacts struct {
			Include struct {
				JobTitles []string `json:"jobTitles"`
			} `json:"include"`
		} `json:"contacts"`
	} `json:"filters"`
}

func (c *httpClient) Search(ctx context.Context, preset Preset, page, size int) (*SearchResult, error) {
	var req searchRequest
	req.Pages.Page = page
	req.Pages.Size = size
	inc := &req.Filters.Companies.Include
	for _, country := range preset.Countries {
		inc.Locations = append(inc.Locations, map[string]string{"country": country})
	}
	for _, s := range preset.CompanySizes {
		inc.Sizes = append(inc.Sizes, sizeRange(s))
	}
	inc.MainIndustriesIDs = preset.IndustryIDs
	req.Filters.Contacts.Include.JobTitles = preset.JobTitles

	var out SearchResult
	if err := c.post(ctx, "/contact/search/", req, &out); err != nil {
		return nil, eris.Wrapf(err, "lusha: search page %d", page)
	}
	out.Page = page
	for i := range out.Contacts {
		out.Contacts[i].RequestID = out.RequestID
	}
	if out.Total == 0 {
		out.Total = len(out.Contacts)
	}

	zap.L().Info("lusha search page",
		zap.Int("page", page),
		zap.Int("contacts", len(out.Contacts)),
		zap.Int("total", out.Total),
		zap.String("request_id", out.RequestID),
	)
	return &out, nil
}

func (c *httpClient) SearchPages(ctx context.Context, preset Preset, start, pages, size int) ([]Contact, error) {
	var all []Contact
	for page := start; page < start+pages; page++ {
		res, err := c.Search(ctx, preset, page, size)
		if err != nil {
			return all, err
		}
		if len(res.Contacts) == 0 {
			zap.L().Info("lusha search exhausted", zap.Int("page", page))
			break
		}
		all = append(all, res.Contacts...)
	}
	return all, nil
}

type enrichResponse struct {
	Contacts []struct {
		ID        json.RawMessage `json:"id"`
		ContactID json.RawMessage `json:"contactId"`
		Data      struct {
			EmailAddresses []struct {
				Email string `json:"email"`
			} `json:"emailAddresses"`
			PhoneNumbers []struct {
				Number string `json:"number"`
			} `json:"phoneNumbers"`
			SocialLinks struct {
				LinkedIn string `json:"linkedin"`
			} `json:"socialLinks"`
		} `json:"data"`
	} `json:"contacts"`
}

func (c *httpClient) Enrich(ctx context.Context, requestID string, contactIDs []string) ([]Enriched, error) {
	if requestID == "" {
		return nil, eris.New("lusha: enrich requires a request id")
	}
	if len(contactIDs) == 0 {
		return nil, nil
	}

	var resp enrichResponse
	body := map[string]any{"requestId": requestID, "contactIds": contactIDs}
	if err := c.post(ctx, "/contact/enrich", body, &resp); err != nil {
		return nil, eris.Wrapf(err, "lusha: enrich %d contacts", len(contactIDs))
	}

	out := make([]Enriched, 0, len(resp.Contacts))
	for _, rc := range resp.Contacts {
		e := Enriched{
			ContactID: rawID(rc.ID),
			LinkedIn:  rc.Data.SocialLinks.LinkedIn,
		}
		if e.ContactID == "" {
			e.ContactID = rawID(rc.ContactID)
		}
		for _, em := range rc.Data.EmailAddresses {
			e.AllEmails = append(e.AllEmails, em.Email)
		}
		for _, ph := range rc.Data.PhoneNumbers {
			e.AllPhones = append(e.AllPhones, ph.Number)
		}
		if len(e.AllEmails) > 0 {
			e.Email = e.AllEmails[0]
		}
		if len(e.AllPhones) > 0 {
			e.Phone = e.AllPhones[0]
		}
		out = append(out, e)
	}
	return out, nil
}

// rawID accepts ids sent either as JSON strings or numbers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

type apiError struct {
	Error any `json:"error"`
}

func (c *httpClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "rate limit")
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("api_key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "request")
		}
		defer resp.Body.Close() //nolint:errcheck

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read response body")
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Error != nil {
		return eris.Errorf("api error: %v", ae.Error)
	}
	return eris.Wrap(json.Unmarshal(body, out), "decode response")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (" + strconv.Itoa(len(s)) + " bytes)"
}
