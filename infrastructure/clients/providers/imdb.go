package providers

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/logger"
)

const (
	IMDbName          = "IMDb"
	imdbScoreSelector = `div[data-testid="hero-rating-bar__aggregate-rating__score"] > span`
)

var leadingDecimal = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)

// IMDb scrapes the aggregate user rating from the title page.
type IMDb struct {
	pages   PageFetcher
	baseURL string
}

func NewIMDb(pages PageFetcher, baseURL string) *IMDb {
	return &IMDb{pages: pages, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *IMDb) Name() string        { return IMDbName }
func (p *IMDb) NeedsMetadata() bool { return false }

func (p *IMDb) GetRatings(ctx context.Context, _ model.MediaType, externalID string, _ *model.TitleMetadata, _ string) ([]model.RatingRecord, error) {
	id := model.BaseExternalID(externalID)
	if p.baseURL == "" || id == "" {
		return nil, nil
	}
	pageURL := p.baseURL + "/title/" + id + "/"

	body, found, err := p.pages.GetPage(ctx, pageURL, IMDbName)
	if err != nil || !found {
		return nil, err
	}
	return ParseIMDb(body, pageURL)
}

// ParseIMDb extracts "X/10" from an IMDb title page.
func ParseIMDb(html []byte, pageURL string) ([]model.RatingRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	text := firstText(doc, imdbScoreSelector)
	if text == "" {
		logger.GetLogger().WithField("provider", IMDbName).WithField("url", pageURL).Warn("Rating selector not found")
		return nil, nil
	}
	m := leadingDecimal.FindStringSubmatch(text)
	if m == nil {
		logger.GetLogger().WithField("provider", IMDbName).WithField("url", pageURL).WithField("text", text).Warn("Could not parse rating")
		return nil, nil
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil || score < 0 || score > 10 {
		logger.GetLogger().WithField("provider", IMDbName).WithField("url", pageURL).WithField("text", text).Warn("Rating outside 0-10 range")
		return nil, nil
	}
	return []model.RatingRecord{{Source: IMDbName, Value: m[1] + "/10", URL: pageURL}}, nil
}
