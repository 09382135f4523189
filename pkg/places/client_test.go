package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "restaurants in 98501 WA", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		fmt.Fprint(w, `{
			"status": "OK",
			"next_page_token": "token-2",
			"results": [
				{"place_id": "p1", "name": "Brick House",
				 "formatted_address": "123 Main St, Olympia, WA 98501",
				 "rating": 4.5, "user_ratings_total": 120,
				 "business_status": "OPERATIONAL",
				 "geometry": {"location": {"lat": 47.04, "lng": -122.9}}}
			]
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.TextSearch(context.Background(), "restaurants in 98501 WA")
	require.NoError(t, err)

	assert.Equal(t, "token-2", resp.NextPageToken)
	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, "p1", r.PlaceID)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 4.5, *r.Rating)
	require.NotNil(t, r.Geometry.Location.Lat)
	assert.Equal(t, 47.04, *r.Geometry.Location.Lat)
}

func TestNextPageSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-2", r.URL.Query().Get("pagetoken"))
		fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.NextPage(context.Background(), "token-2")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.NextPageToken)
}

func TestSearchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "OVER_QUERY_LIMIT", "results": []}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.TextSearch(context.Background(), "restaurants")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT")
}

func TestDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("place_id"))
		assert.NotEmpty(t, r.URL.Query().Get("fields"))

		fmt.Fprint(w, `{
			"status": "OK",
			"result": {
				"formatted_phone_number": "(360) 555-0101",
				"international_phone_number": "+1 360-555-0101",
				"website": "https://brickhouse.example",
				"price_level": 2,
				"types": ["restaurant", "food"],
				"opening_hours": {"weekday_text": ["Monday: 9:00 AM - 5:00 PM"]},
				"address_components": [
					{"long_name": "123", "short_name": "123", "types": ["street_number"]},
					{"long_name": "Main Street", "short_name": "Main St", "types": ["route"]},
					{"long_name": "Olympia", "short_name": "Olympia", "types": ["locality", "political"]}
				],
				"photos": [{"photo_reference": "photo-abc"}]
			}
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	d, err := c.Details(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "(360) 555-0101", d.FormattedPhoneNumber)
	require.NotNil(t, d.PriceLevel)
	assert.Equal(t, 2, *d.PriceLevel)
	assert.Equal(t, []string{"restaurant", "food"}, d.Types)
	require.NotNil(t, d.OpeningHours)
	assert.Len(t, d.OpeningHours.WeekdayText, 1)
	require.Len(t, d.Photos, 1)
	assert.Equal(t, "photo-abc", d.Photos[0].PhotoReference)
}

func TestDetailsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "NOT_FOUND"}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Details(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestComponent(t *testing.T) {
	comps := []AddressComponent{
		{LongName: "123", Types: []string{"street_number"}},
		{LongName: "Olympia", Types: []string{"locality", "political"}},
	}
	assert.Equal(t, "Olympia", Component(comps, "locality"))
	assert.Empty(t, Component(comps, "postal_code"))
}

func TestHTTPErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.TextSearch(context.Background(), "restaurants")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
