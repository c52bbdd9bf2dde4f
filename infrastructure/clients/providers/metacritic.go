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
	MetacriticName        = "Metacritic"
	SourceMetacritic      = "MC"
	SourceMetacriticUsers = "MC Users"

	mcCriticSelector = `[data-testid="critic-score-info"] .c-siteReviewScore span`
	mcUserSelector   = `[data-testid="user-score-info"] .c-siteReviewScore span`
)

var (
	integerOnly = regexp.MustCompile(`^\d+$`)
	decimalOnly = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Metacritic scrapes the Metascore and the user score.
type Metacritic struct {
	pages   PageFetcher
	baseURL string
}

func NewMetacritic(pages PageFetcher, baseURL string) *Metacritic {
	return &Metacritic{pages: pages, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *Metacritic) Name() string        { return MetacriticName }
func (p *Metacritic) NeedsMetadata() bool { return true }

func (p *Metacritic) GetRatings(ctx context.Context, mediaType model.MediaType, externalID string, meta *model.TitleMetadata, _ string) ([]model.RatingRecord, error) {
	if !meta.HasTitle() || p.baseURL == "" {
		logger.GetLogger().WithField("provider", MetacriticName).WithField("id", externalID).Debug("Skipping: missing title")
		return nil, nil
	}
	slug := TitleSlug(meta.Title)
	if slug == "" {
		return nil, nil
	}
	pageURL := p.baseURL + "/" + mediaPath(mediaType, "movie", "tv") + "/" + slug

	body, found, err := p.pages.GetPage(ctx, pageURL, MetacriticName)
	if err != nil || !found {
		return nil, err
	}
	return ParseMetacritic(body, pageURL)
}

// ParseMetacritic returns up to two records: MC (0-100) and MC Users (0-10).
// A "tbd" user score is ignored.
func ParseMetacritic(html []byte, pageURL string) ([]model.RatingRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	var records []model.RatingRecord

	if text := firstText(doc, mcCriticSelector); integerOnly.MatchString(text) {
		if score, _ := strconv.Atoi(text); score >= 0 && score <= 100 {
			records = append(records, model.RatingRecord{Source: SourceMetacritic, Value: text + "/100", URL: pageURL, Type: "Critics"})
		} else {
			logger.GetLogger().WithField("provider", MetacriticName).WithField("url", pageURL).WithField("score", score).Warn("Critic score outside 0-100 range")
		}
	} else if text != "" {
		logger.GetLogger().WithField("provider", MetacriticName).WithField("url", pageURL).WithField("text", text).Warn("Critic score failed validation")
	}

	if text := firstText(doc, mcUserSelector); decimalOnly.MatchString(text) {
		score, _ := strconv.ParseFloat(text, 64)
		if score >= 0 && score <= 10 {
			value := strconv.FormatFloat(score, 'f', -1, 64) + "/10"
			records = append(records, model.RatingRecord{Source: SourceMetacriticUsers, Value: value, URL: pageURL, Type: "Users"})
		} else {
			logger.GetLogger().WithField("provider", MetacriticName).WithField("url", pageURL).WithField("score", score).Warn("User score outside 0-10 range")
		}
	} else if text != "" && !strings.EqualFold(text, "tbd") {
		logger.GetLogger().WithField("provider", MetacriticName).WithField("url", pageURL).WithField("text", text).Warn("User score failed validation")
	}

	return records, nil
}
