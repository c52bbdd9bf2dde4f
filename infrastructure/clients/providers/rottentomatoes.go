package providers

import (
	"context"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/logger"
)

const (
	RottenTomatoesName = "Rotten Tomatoes"
	SourceRT           = "RT"
	SourceRTUsers      = "RT Users"

	rtCriticsSelector  = `rt-text[slot="criticsScore"]`
	rtAudienceSelector = `rt-text[slot="audienceScore"]`
	rtJSONLDSelector   = `script[type="application/ld+json"]`
)

var leadingInt = regexp.MustCompile(`^\d+`)

// RottenTomatoes scrapes the Tomatometer and the audience score.
type RottenTomatoes struct {
	pages   PageFetcher
	baseURL string
}

func NewRottenTomatoes(pages PageFetcher, baseURL string) *RottenTomatoes {
	return &RottenTomatoes{pages: pages, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *RottenTomatoes) Name() string        { return RottenTomatoesName }
func (p *RottenTomatoes) NeedsMetadata() bool { return true }

func (p *RottenTomatoes) GetRatings(ctx context.Context, mediaType model.MediaType, externalID string, meta *model.TitleMetadata, _ string) ([]model.RatingRecord, error) {
	if !meta.HasTitle() || p.baseURL == "" {
		logger.GetLogger().WithField("provider", RottenTomatoesName).WithField("id", externalID).Debug("Skipping: missing title")
		return nil, nil
	}
	slug := RottenTomatoesSlug(meta.Title)
	if slug == "" {
		return nil, nil
	}
	pageURL := p.baseURL + "/" + mediaPath(mediaType, "m", "tv") + "/" + slug

	body, found, err := p.pages.GetPage(ctx, pageURL, RottenTomatoesName)
	if err != nil || !found {
		return nil, err
	}
	return ParseRottenTomatoes(body, pageURL)
}

// ParseRottenTomatoes reads the score slots and falls back to JSON-LD
// aggregateRating when the slots are absent. Values are "N%".
func ParseRottenTomatoes(html []byte, pageURL string) ([]model.RatingRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	var records []model.RatingRecord
	add := func(source, kind string, score int) {
		for _, r := range records {
			if r.Source == source {
				return
			}
		}
		records = append(records, model.RatingRecord{
			Source: source,
			Value:  strconv.Itoa(score) + "%",
			URL:    pageURL,
			Type:   kind,
		})
	}

	if score, ok := percentText(firstText(doc, rtCriticsSelector)); ok {
		add(SourceRT, "Critics", score)
	}
	if score, ok := percentText(firstText(doc, rtAudienceSelector)); ok {
		add(SourceRTUsers, "Audience", score)
	}
	if len(records) == 0 {
		doc.Find(rtJSONLDSelector).Each(func(_ int, s *goquery.Selection) {
			if score, ok := jsonLDScore(s.Text()); ok {
				add(SourceRT, "Critics", score)
			}
		})
	}

	if len(records) == 0 {
		logger.GetLogger().WithField("provider", RottenTomatoesName).WithField("url", pageURL).Debug("No scores found")
	}
	return records, nil
}

func percentText(text string) (int, bool) {
	m := leadingInt.FindString(strings.TrimSpace(text))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

type jsonLD struct {
	AggregateRating *struct {
		RatingValue json.RawMessage `json:"ratingValue"`
	} `json:"aggregateRating"`
}

// jsonLDScore accepts ratingValue as "91", "91%" or a 0-1 fraction.
func jsonLDScore(raw string) (int, bool) {
	var doc jsonLD
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc.AggregateRating == nil {
		return 0, false
	}
	v := doc.AggregateRating.RatingValue
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return percentText(strings.TrimSuffix(s, "%"))
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, false
	}
	if f <= 1 {
		f *= 100
	}
	n := int(math.Round(f))
	if n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}
