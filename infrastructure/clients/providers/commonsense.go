package providers

import (
	"context"
	"regexp"
	"strings"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/logger"
)

const (
	CommonSenseName     = "Common Sense"
	commonSenseSelector = "span.rating__age"
)

var agePrefix = regexp.MustCompile(`(?i)^age\s*`)

// CommonSense scrapes the Common Sense Media age rating, e.g. "13+".
type CommonSense struct {
	pages   PageFetcher
	baseURL string
}

func NewCommonSense(pages PageFetcher, baseURL string) *CommonSense {
	return &CommonSense{pages: pages, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *CommonSense) Name() string        { return CommonSenseName }
func (p *CommonSense) NeedsMetadata() bool { return true }

func (p *CommonSense) GetRatings(ctx context.Context, mediaType model.MediaType, externalID string, meta *model.TitleMetadata, _ string) ([]model.RatingRecord, error) {
	if !meta.HasTitle() || p.baseURL == "" {
		logger.GetLogger().WithField("provider", CommonSenseName).WithField("id", externalID).Debug("Skipping: missing title")
		return nil, nil
	}
	slug := TitleSlug(meta.Title)
	if slug == "" {
		return nil, nil
	}
	pageURL := p.baseURL + "/" + mediaPath(mediaType, "movie-reviews", "tv-reviews") + "/" + slug

	body, found, err := p.pages.GetPage(ctx, pageURL, CommonSenseName)
	if err != nil || !found {
		return nil, err
	}
	return ParseCommonSense(body, pageURL)
}

func ParseCommonSense(html []byte, pageURL string) ([]model.RatingRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	text := firstText(doc, commonSenseSelector)
	value := strings.TrimSpace(agePrefix.ReplaceAllString(text, ""))
	if value == "" {
		logger.GetLogger().WithField("provider", CommonSenseName).WithField("url", pageURL).Debug("Age rating not found")
		return nil, nil
	}
	return []model.RatingRecord{{Source: CommonSenseName, Value: value, URL: pageURL, Type: "Age Rating"}}, nil
}
