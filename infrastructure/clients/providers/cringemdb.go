package providers

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/logger"
)

const (
	CringeMDBName = "CringeMDB"

	cringeSafeSelector    = ".certification .emoji .safe"
	cringeWarningSelector = ".content-warnings .content-flag"

	certParentSafe    = "✅ Parent-Safe"
	certNotParentSafe = "⚠️ Not Parent Safe"
	defaultWarnEmoji  = "🚩"
)

var warningEmoji = map[string]string{
	"Sex Scene":          "🔞",
	"Nudity":             "👁️‍🗨️",
	"Sexual Violence":    "💔",
	"Graphic Violence":   "🩸",
	"Drug Use":           "💊",
	"Excessive Swearing": "🤬",
}

// CringeMDB reports parent-safety certification and content warnings for
// movies as one multi-line value.
type CringeMDB struct {
	pages   PageFetcher
	baseURL string
}

func NewCringeMDB(pages PageFetcher, baseURL string) *CringeMDB {
	return &CringeMDB{pages: pages, baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *CringeMDB) Name() string        { return CringeMDBName }
func (p *CringeMDB) NeedsMetadata() bool { return true }

func (p *CringeMDB) GetRatings(ctx context.Context, mediaType model.MediaType, externalID string, meta *model.TitleMetadata, _ string) ([]model.RatingRecord, error) {
	if mediaType != model.MediaTypeMovie {
		return nil, nil
	}
	year := meta.Year()
	if !meta.HasTitle() || year == "" || p.baseURL == "" {
		logger.GetLogger().WithField("provider", CringeMDBName).WithField("id", externalID).Debug("Skipping: missing title or year")
		return nil, nil
	}
	slug := CringeMDBSlug(meta.Title)
	if slug == "" {
		return nil, nil
	}
	pageURL := p.baseURL + "/movie/" + slug + "-" + year

	body, found, err := p.pages.GetPage(ctx, pageURL, CringeMDBName)
	if err != nil || !found {
		return nil, err
	}
	return ParseCringeMDB(body, pageURL)
}

// ParseCringeMDB always yields the certification line, followed by one line
// per warning flagged "Yes".
func ParseCringeMDB(html []byte, pageURL string) ([]model.RatingRecord, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	lines := []string{certNotParentSafe}
	if doc.Find(cringeSafeSelector).Length() > 0 {
		lines[0] = certParentSafe
	}

	doc.Find(cringeWarningSelector).Each(func(_ int, s *goquery.Selection) {
		category := strings.TrimSpace(s.Find("h3").First().Text())
		flagged := strings.TrimSpace(s.Find("h4").First().Text())
		if category == "" || !strings.EqualFold(flagged, "yes") {
			return
		}
		emoji, ok := warningEmoji[category]
		if !ok {
			emoji = defaultWarnEmoji
		}
		lines = append(lines, emoji+" "+category)
	})

	return []model.RatingRecord{{
		Source: CringeMDBName,
		Value:  strings.Join(lines, "\n"),
		URL:    pageURL,
		Type:   "Content Warnings",
	}}, nil
}
