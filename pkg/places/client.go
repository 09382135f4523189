package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// detailsFields is the field mask requested for every details call.
const detailsFields = "formatted_phone_number,international_phone_number,website," +
	"opening_hours,price_level,types,address_components,photo"

// Client performs Google Places API operations against the legacy
// Text Search and Details endpoints.
type Client interface {
	TextSearch(ctx context.Context, query string) (*SearchResponse, error)
	NextPage(ctx context.Context, pageToken string) (*SearchResponse, error)
	Details(ctx context.Context, placeID string) (*Details, error)
}

// SearchResponse is one page of Text Search results.
type SearchResponse struct {
	Status        string   `json:"status"`
	Results       []Result `json:"results"`
	NextPageToken string   `json:"next_page_token"`
}

// Result is one search hit.
type Result struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Vicinity         string   `json:"vicinity"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	BusinessStatus   string   `json:"business_status"`
	Geometry         Geometry `json:"geometry"`
}

// Geometry holds the result coordinates.
type Geometry struct {
	Location Location `json:"location"`
}

// Location is a lat/lng pair. Pointers: the API omits coordinates for some
// results.
type Location struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Details is the payload of a place details call.
type Details struct {
	FormattedPhoneNumber     string             `json:"formatted_phone_number"`
	InternationalPhoneNumber string             `json:"international_phone_number"`
	Website                  string             `json:"website"`
	OpeningHours             *OpeningHours      `json:"opening_hours"`
	PriceLevel               *int               `json:"price_level"`
	Types                    []string           `json:"types"`
	AddressComponents        []AddressComponent `json:"address_components"`
	Photos                   []Photo            `json:"photos"`
}

// OpeningHours carries the human-readable weekday text.
type OpeningHours struct {
	WeekdayText []string `json:"weekday_text"`
}

// AddressComponent is one structured address part.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Component returns the long name of the first component tagged with typ,
// or "" when absent.
func Component(comps []AddressComponent, typ string) string {
	for _, c := range comps {
		for _, t := range c.Types {
			if t == typ {
				return c.LongName
			}
		}
	}
	return ""
}

// Photo holds a photo reference token.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
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

// WithRateLimit caps outgoing requests per second. The limiter is shared by
// concurrent details workers.
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

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(10, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	return c.search(ctx, params)
}

func (c *httpClient) NextPage(ctx context.Context, pageToken string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("pagetoken", pageToken)
	return c.search(ctx, params)
}

func (c *httpClient) search(ctx context.Context, params url.Values) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.get(ctx, "/textsearch/json", params, &out); err != nil {
		return nil, err
	}
	if out.Status != "OK" && out.Status != "ZERO_RESULTS" {
		return nil, eris.Errorf("places: search status %s", out.Status)
	}
	return &out, nil
}

type detailsResponse struct {
	Status string  `json:"status"`
	Result Details `json:"result"`
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	var out detailsResponse
	if err := c.get(ctx, "/details/json", params, &out); err != nil {
		return nil, err
	}
	if out.Status != "OK" {
		return nil, eris.Errorf("places: details status %s for %s", out.Status, placeID)
	}
	return &out.Result, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "places: rate limit wait")
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}
	return nil
}
