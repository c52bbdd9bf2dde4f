// Package tmdb wraps the parts of The Movie Database v3 API used for title
// resolution and TMDb ratings.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/clients/httpx"
	"ratings-aggregator/infrastructure/configuration"
	"ratings-aggregator/infrastructure/logger"
)

const dateLayout = "2006-01-02"

// ErrMissingAPIKey is returned when a request is attempted without a key.
var ErrMissingAPIKey = errors.New("tmdb: api key not configured")

type findParams struct {
	APIKey         string `url:"api_key"`
	ExternalSource string `url:"external_source"`
}

type detailsParams struct {
	APIKey string `url:"api_key"`
}

type findResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

type findResponse struct {
	MovieResults []findResult `json:"movie_results"`
	TVResults    []findResult `json:"tv_results"`
}

// Details is the rating portion of a movie or tv details response.
type Details struct {
	ID          int64   `json:"id"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

type Client struct {
	http   *http.Client
	apiURL string
	webURL string
	apiKey string
}

// NewClient returns a TMDb client. A nil httpClient falls back to a client
// with the configured request timeout.
func NewClient(httpClient *http.Client, cfg configuration.TMDb, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		http:   httpClient,
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		webURL: strings.TrimRight(cfg.WebURL, "/"),
		apiKey: cfg.APIKey,
	}
}

// Resolve looks up an IMDb id via /find and returns the TMDb id, title and
// release date. Unknown titles yield (nil, nil).
func (c *Client) Resolve(ctx context.Context, externalID string, mediaType model.MediaType) (*model.TitleMetadata, error) {
	baseID := model.BaseExternalID(externalID)
	if baseID == "" {
		return nil, nil
	}
	params, err := query.Values(findParams{APIKey: c.apiKey, ExternalSource: "imdb_id"})
	if err != nil {
		return nil, fmt.Errorf("encode find params: %w", err)
	}

	var resp findResponse
	found, err := c.get(ctx, "/find/"+baseID, params, &resp)
	if err != nil {
		return nil, fmt.Errorf("tmdb find %s: %w", baseID, err)
	}
	if !found {
		logger.GetLogger().WithField("imdb_id", baseID).Warn("TMDb find returned 404")
		return nil, nil
	}

	results := resp.MovieResults
	if mediaType == model.MediaTypeSeries {
		results = resp.TVResults
	}
	if len(results) == 0 {
		logger.GetLogger().WithField("imdb_id", baseID).WithField("type", mediaType).Warn("No TMDb results")
		return nil, nil
	}

	item := results[0]
	meta := &model.TitleMetadata{
		InternalID: strconv.FormatInt(item.ID, 10),
		Title:      firstNonEmpty(item.Title, item.Name),
	}
	if d := firstNonEmpty(item.ReleaseDate, item.FirstAirDate); d != "" {
		if t, err := time.Parse(dateLayout, d); err == nil {
			meta.ReleaseDate = &t
		}
	}
	logger.GetLogger().
		WithField("imdb_id", baseID).
		WithField("tmdb_id", meta.InternalID).
		WithField("title", meta.Title).
		Debug("TMDb resolved title")
	return meta, nil
}

// Details fetches vote data for a TMDb id. A 404 yields (nil, nil).
func (c *Client) Details(ctx context.Context, mediaType model.MediaType, tmdbID string) (*Details, error) {
	params, err := query.Values(detailsParams{APIKey: c.apiKey})
	if err != nil {
		return nil, fmt.Errorf("encode details params: %w", err)
	}
	var d Details
	found, err := c.get(ctx, "/"+endpoint(mediaType)+"/"+tmdbID, params, &d)
	if err != nil {
		return nil, fmt.Errorf("tmdb details %s/%s: %w", endpoint(mediaType), tmdbID, err)
	}
	if !found {
		return nil, nil
	}
	return &d, nil
}

// PageURL is the public themoviedb.org page for a title.
func (c *Client) PageURL(mediaType model.MediaType, tmdbID string) string {
	return c.webURL + "/" + endpoint(mediaType) + "/" + tmdbID
}

// get decodes a JSON response into out. The api key stays out of errors.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (bool, error) {
	if c.apiKey == "" {
		return false, ErrMissingAPIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, &httpx.HTTPStatusError{URL: c.apiURL + path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func endpoint(mediaType model.MediaType) string {
	if mediaType == model.MediaTypeSeries {
		return "tv"
	}
	return "movie"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
