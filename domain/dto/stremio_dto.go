package dto

// Manifest is the Stremio add-on manifest served at /manifest.json.
type Manifest struct {
	ID            string                `json:"id"`
	Version       string                `json:"version"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Logo          string                `json:"logo,omitempty"`
	Catalogs      []interface{}         `json:"catalogs"`
	Resources     []string              `json:"resources"`
	Types         []string              `json:"types"`
	IDPrefixes    []string              `json:"idPrefixes"`
	BehaviorHints ManifestBehaviorHints `json:"behaviorHints"`
}

type ManifestBehaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

// Stream is a non-playable stream entry that carries ratings in its
// description.
type Stream struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	ExternalURL   string              `json:"externalUrl,omitempty"`
	Type          string              `json:"type"`
	BehaviorHints StreamBehaviorHints `json:"behaviorHints"`
}

type StreamBehaviorHints struct {
	NotWebReady bool   `json:"notWebReady"`
	BingeGroup  string `json:"bingeGroup,omitempty"`
}

type StreamResponse struct {
	Streams []Stream `json:"streams"`
}
