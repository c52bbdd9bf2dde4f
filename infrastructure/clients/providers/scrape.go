// Package providers holds the rating sources and their registry.
package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ratings-aggregator/domain/model"
)

// PageFetcher is satisfied by *httpx.Client.
type PageFetcher interface {
	GetPage(ctx context.Context, url, provider string) ([]byte, bool, error)
}

// fetchDocument returns (nil, nil) when the page does not exist.
func fetchDocument(ctx context.Context, pages PageFetcher, url, provider string) (*goquery.Document, error) {
	body, found, err := pages.GetPage(ctx, url, provider)
	if err != nil || !found {
		return nil, err
	}
	return parseDocument(body)
}

func parseDocument(html []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func mediaPath(mediaType model.MediaType, moviePath, seriesPath string) string {
	if mediaType == model.MediaTypeSeries {
		return seriesPath
	}
	return moviePath
}
