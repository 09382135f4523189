package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.yelp.com/v3"

// Client performs Yelp Fusion API operations.
type Client interface {
	Search(ctx context.Context, params SearchParams) ([]Business, error)
	PhoneSearch(ctx context.Context, phone string) ([]Business, error)
	Details(ctx context.Context, businessID string) (*Business, error)
	Reviews(ctx context.Context, businessID string) (*ReviewsResponse, error)
}

// SearchParams narrows a business search. Either Lat/Lon or Location must be
// set.
type SearchParams struct {
	Term     string
	Lat      *float64
	Lon      *float64
	Location string
	Limit    int
}

// Business is a Yelp business record.
type Business struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Rating       *float64    `json:"rating"`
	ReviewCount  *int        `json:"review_count"`
	Price        string      `json:"price"`
	Phone        string      `json:"phone"`
	DisplayPhone string      `json:"display_phone"`
	URL          string      `json:"url"`
	IsClosed     bool        `json:"is_closed"`
	Categories   []Category  `json:"categories"`
	Coordinates  Coordinates `json:"coordinates"`
	Location     Location    `json:"location"`
}

// Category is a Yelp category with machine alias and display title.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Coordinates is a nullable lat/lon pair.
type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Location is a Yelp address block.
type Location struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
}

// ReviewsResponse is a page of reviews for one business.
type ReviewsResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}

// Review is one user review excerpt.
type Review struct {
	ID          string   `json:"id"`
	Rating      float64  `json:"rating"`
	Text        string   `json:"text"`
	TimeCreated string   `json:"time_created"`
	User        UserInfo `json:"user"`
}

// UserInfo identifies a review author.
type UserInfo struct {
	Name string `json:"name"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Yelp Fusion API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(5, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

func (c *httpClient) Search(ctx context.Context, p SearchParams) ([]Business, error) {
	params := url.Values{}
	if p.Term != "" {
		params.Set("term", p.Term)
	}
	if p.Lat != nil && p.Lon != nil {
		params.Set("latitude", strconv.FormatFloat(*p.Lat, 'f', -1, 64))
		params.Set("longitude", strconv.FormatFloat(*p.Lon, 'f', -1, 64))
	} else if p.Location != "" {
		params.Set("location", p.Location)
	} else {
		return nil, eris.New("yelp: search needs coordinates or a location")
	}
	if p.Limit > 0 {
		params.Set("limit", strconv.Itoa(p.Limit))
	}

	var out searchResponse
	if err := c.get(ctx, "/businesses/search", params, &out); err != nil {
		return nil, err
	}
	return out.Businesses, nil
}

// PhoneSearch looks businesses up by phone number. Digits are normalized and
// prefixed with +1 when no country code is present.
func (c *httpClient) PhoneSearch(ctx context.Context, phone string) ([]Business, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, eris.New("yelp: empty phone number")
	}

	params := url.Values{}
	params.Set("phone", normalized)

	var out searchResponse
	if err := c.get(ctx, "/businesses/search/phone", params, &out); err != nil {
		return nil, err
	}
	return out.Businesses, nil
}

func (c *httpClient) Details(ctx context.Context, businessID string) (*Business, error) {
	var out Business
	if err := c.get(ctx, "/businesses/"+url.PathEscape(businessID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Reviews(ctx context.Context, businessID string) (*ReviewsResponse, error) {
	var out ReviewsResponse
	if err := c.get(ctx, "/businesses/"+url.PathEscape(businessID)+"/reviews", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NormalizePhone reduces a phone string to +<digits>, assuming US numbers
// when no country code is given. Returns "" for input without digits.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if s == "" {
		return ""
	}
	if len(s) == 10 {
		s = "1" + s
	}
	return "+" + s
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "yelp: rate limit wait")
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "yelp: create request")
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "yelp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "yelp: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("yelp: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "yelp: unmarshal response")
	}
	return nil
}
