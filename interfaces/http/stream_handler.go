package http

import (
	"fmt"
	"net/http"
	"strings"

	"ratings-aggregator/domain/dto"
	"ratings-aggregator/domain/model"
	"ratings-aggregator/infrastructure/configuration"
	"ratings-aggregator/infrastructure/logger"
	"ratings-aggregator/usecase"

	"github.com/gin-gonic/gin"
)

const (
	streamName      = "📊 Ratings"
	streamSeparator = "───────────────"
	defaultEmoji    = "📊"
)

var sourceEmoji = map[string]string{
	"TMDb":         "🎥",
	"IMDb":         "⭐",
	"MC":           "Ⓜ️",
	"MC Users":     "👤",
	"RT":           "🍅",
	"RT Users":     "👥",
	"Common Sense": "👶",
	"CringeMDB":    "⚠️",
}

// scoreOrder is the display order of numeric scores.
var scoreOrder = []string{"IMDb", "TMDb", "MC", "MC Users", "RT", "RT Users"}

type IStreamHandler interface {
	Manifest(c *gin.Context)
	Stream(c *gin.Context)
}

type StreamHandler struct {
	RatingUsecase usecase.IRatingUsecase
	manifest      dto.Manifest
	imdbBaseURL   string
}

func NewStreamHandler(ratingUsecase usecase.IRatingUsecase, addon configuration.Addon, version, imdbBaseURL string) IStreamHandler {
	return &StreamHandler{
		RatingUsecase: ratingUsecase,
		manifest:      BuildManifest(addon, version),
		imdbBaseURL:   strings.TrimRight(imdbBaseURL, "/"),
	}
}

func BuildManifest(addon configuration.Addon, version string) dto.Manifest {
	if version == "" {
		version = "0.0.0"
	}
	return dto.Manifest{
		ID:          addon.ID,
		Version:     version,
		Name:        addon.Name,
		Description: addon.Description,
		Logo:        addon.Logo,
		Catalogs:    []interface{}{},
		Resources:   []string{"stream"},
		Types:       []string{string(model.MediaTypeMovie), string(model.MediaTypeSeries)},
		IDPrefixes:  []string{"tt"},
		BehaviorHints: dto.ManifestBehaviorHints{
			Configurable:          true,
			ConfigurationRequired: false,
		},
	}
}

// Manifest handles GET /manifest.json
func (h *StreamHandler) Manifest(c *gin.Context) {
	c.JSON(http.StatusOK, h.manifest)
}

// Stream handles GET /stream/:type/:id(.json). Unknown ids and titles
// without ratings yield an empty stream list.
func (h *StreamHandler) Stream(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".json")
	empty := dto.StreamResponse{Streams: []dto.Stream{}}

	mediaType, ok := model.ParseMediaType(c.Param("type"))
	if !ok || !strings.HasPrefix(id, "tt") {
		logger.GetLogger().WithField("type", c.Param("type")).WithField("id", id).Warn("Unsupported stream request")
		c.JSON(http.StatusOK, empty)
		return
	}

	records, found := h.RatingUsecase.GetRatings(c.Request.Context(), mediaType, id)
	if !found || len(records) == 0 {
		logger.GetLogger().WithField("type", c.Param("type")).WithField("id", id).Info("No ratings found")
		c.JSON(http.StatusOK, empty)
		return
	}
	c.JSON(http.StatusOK, dto.StreamResponse{Streams: []dto.Stream{BuildRatingStream(id, records, h.imdbBaseURL)}})
}

// BuildRatingStream renders records as one stream: the age rating first,
// then scores in a fixed order, then content warnings.
func BuildRatingStream(id string, records []model.RatingRecord, imdbBaseURL string) dto.Stream {
	bySource := make(map[string]model.RatingRecord, len(records))
	for _, r := range records {
		bySource[r.Source] = r
	}

	lines := []string{streamSeparator}
	if r, ok := bySource["Common Sense"]; ok {
		lines = append(lines, emojiFor(r.Source)+" "+r.Value)
	}

	shown := map[string]bool{"Common Sense": true, "CringeMDB": true}
	for _, source := range scoreOrder {
		if r, ok := bySource[source]; ok {
			lines = append(lines, scoreLine(r))
			shown[source] = true
		}
	}
	for _, r := range records {
		if !shown[r.Source] {
			lines = append(lines, scoreLine(r))
		}
	}

	if r, ok := bySource["CringeMDB"]; ok {
		for _, line := range strings.Split(r.Value, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	lines = append(lines, streamSeparator)

	baseID := model.BaseExternalID(id)
	externalURL := imdbBaseURL + "/title/" + baseID + "/"
	if r, ok := bySource["IMDb"]; ok && r.URL != "" {
		externalURL = r.URL
	}

	return dto.Stream{
		Name:        streamName,
		Description: strings.Join(lines, "\n"),
		ExternalURL: externalURL,
		Type:        "other",
		BehaviorHints: dto.StreamBehaviorHints{
			NotWebReady: true,
			BingeGroup:  "ratings-" + id,
		},
	}
}

func scoreLine(r model.RatingRecord) string {
	return fmt.Sprintf("%s %-9s: %s", emojiFor(r.Source), r.Source, r.Value)
}

func emojiFor(source string) string {
	if e, ok := sourceEmoji[source]; ok {
		return e
	}
	return defaultEmoji
}
