package configuration

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ratings-aggregator/infrastructure/logger"

	"github.com/spf13/viper"
)

// ErrConfiguration marks a missing startup dependency. It is fatal.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	App         App         `json:"app"`
	RedisClient RedisClient `json:"redisClient"`
	Cache       Cache       `json:"cache"`
	HTTP        HTTP        `json:"http"`
	TMDb        TMDb        `json:"tmdb"`
	Sources     Sources     `json:"sources"`
	Addon       Addon       `json:"addon"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port    int    `json:"port"`
	Version string `json:"version"`
}

type RedisClient struct {
	URL               string `json:"url"`
	Host              string `json:"host"`
	Port              string `json:"port"`
	Password          string `json:"password"`
	Username          string `json:"username"`
	Database          int    `json:"database"`
	MaxRetries        int    `json:"maxRetries"`
	MinRetryBackoffMs int    `json:"minRetryBackoffMs"`
	MaxRetryBackoffMs int    `json:"maxRetryBackoffMs"`
	DialTimeoutMs     int    `json:"dialTimeoutMs"`
}

// Cache lifetimes in seconds. Zero keeps the policy default.
type Cache struct {
	TTLSeconds              int `json:"ttlSeconds"`
	NegativeTTLSeconds      int `json:"negativeTtlSeconds"`
	LowConfidenceTTLSeconds int `json:"lowConfidenceTtlSeconds"`
}

type HTTP struct {
	RequestTimeoutMs int    `json:"requestTimeoutMs"`
	UserAgent        string `json:"userAgent"`
}

type TMDb struct {
	APIKey string `json:"apiKey"`
	APIURL string `json:"apiUrl"`
	WebURL string `json:"webUrl"`
}

type Sources struct {
	IMDbBaseURL           string `json:"imdbBaseUrl"`
	MetacriticBaseURL     string `json:"metacriticBaseUrl"`
	CommonSenseBaseURL    string `json:"commonSenseBaseUrl"`
	CringeMDBBaseURL      string `json:"cringeMdbBaseUrl"`
	RottenTomatoesBaseURL string `json:"rottenTomatoesBaseUrl"`
}

type Addon struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
}

type Logger struct {
	Level string `json:"level"`
}

const (
	defaultPort             = 61262
	defaultRequestTimeoutMs = 12000
	defaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultAddonName        = "🎯 Ratings Aggregator"
)

var C Config

func init() {
	LoadConfig()
	ApplyEnv(&C)
	logger.SetLevel(C.Logger.Level)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().WithField("config", name).Debug("Config file not found, using environment")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

// ApplyEnv layers environment variables over c and fills defaults.
// Environment values win over the config file.
func ApplyEnv(c *Config) {
	initApp(c)
	initRedis(c)
	initCache(c)
	initHTTP(c)
	initTMDb(c)
	initSources(c)
	initAddon(c)
	c.Logger.Level = getConfigValue(c.Logger.Level, "LOG_LEVEL", "info")
}

func initApp(c *Config) {
	// APP_PORT -> PORT -> config -> default
	if p := envInt("APP_PORT"); p > 0 {
		c.App.Port = p
	} else if p := envInt("PORT"); p > 0 {
		c.App.Port = p
	}
	if c.App.Port == 0 {
		c.App.Port = defaultPort
	}
	c.App.Version = getConfigValue(c.App.Version, "APP_VERSION", "1.0.0")
}

func initRedis(c *Config) {
	r := &c.RedisClient
	r.URL = getConfigValue(r.URL, "REDIS_URL", "")
	r.Host = getConfigValue(r.Host, "REDIS_HOST", "localhost")
	r.Port = getConfigValue(r.Port, "REDIS_PORT", "6379")
	r.Password = getConfigValue(r.Password, "REDIS_PASSWORD", "")
	r.Username = getConfigValue(r.Username, "REDIS_USERNAME", "")
	if r.MaxRetries == 0 {
		r.MaxRetries = 3
	}
	if r.MinRetryBackoffMs == 0 {
		r.MinRetryBackoffMs = 100
	}
	if r.MaxRetryBackoffMs == 0 {
		r.MaxRetryBackoffMs = 2000
	}
	if r.DialTimeoutMs == 0 {
		r.DialTimeoutMs = 5000
	}
	if r.URL == "" && os.Getenv("REDIS_HOST") == "" && c.RedisClient.Host == "localhost" {
		logger.GetLogger().Warn("REDIS_URL is not set. Caching will use redis://localhost:6379")
	}
}

func initCache(c *Config) {
	if v := envInt("CACHE_TTL_SECONDS"); v > 0 {
		c.Cache.TTLSeconds = v
	}
	if v := envInt("NEGATIVE_CACHE_TTL_SECONDS"); v > 0 {
		c.Cache.NegativeTTLSeconds = v
	}
	if v := envInt("LOW_CONFIDENCE_TTL_SECONDS"); v > 0 {
		c.Cache.LowConfidenceTTLSeconds = v
	}
}

func initHTTP(c *Config) {
	if v := envInt("HTTP_TIMEOUT_MS"); v > 0 {
		c.HTTP.RequestTimeoutMs = v
	}
	if c.HTTP.RequestTimeoutMs <= 0 {
		c.HTTP.RequestTimeoutMs = defaultRequestTimeoutMs
	}
	c.HTTP.UserAgent = getConfigValue(c.HTTP.UserAgent, "USER_AGENT", defaultUserAgent)
}

func initTMDb(c *Config) {
	c.TMDb.APIKey = getConfigValue(c.TMDb.APIKey, "TMDB_API_KEY", "")
	c.TMDb.APIURL = getConfigValue(c.TMDb.APIURL, "TMDB_API_URL", "https://api.themoviedb.org/3")
	c.TMDb.WebURL = getConfigValue(c.TMDb.WebURL, "TMDB_WEB_URL", "https://www.themoviedb.org")
}

func initSources(c *Config) {
	s := &c.Sources
	s.IMDbBaseURL = getConfigValue(s.IMDbBaseURL, "IMDB_BASE_URL", "https://www.imdb.com")
	s.MetacriticBaseURL = getConfigValue(s.MetacriticBaseURL, "METACRITIC_BASE_URL", "https://www.metacritic.com")
	s.CommonSenseBaseURL = getConfigValue(s.CommonSenseBaseURL, "COMMONSENSE_BASE_URL", "https://www.commonsensemedia.org")
	s.CringeMDBBaseURL = getConfigValue(s.CringeMDBBaseURL, "CRINGEMDB_BASE_URL", "https://cringemdb.com")
	s.RottenTomatoesBaseURL = getConfigValue(s.RottenTomatoesBaseURL, "ROTTENTOMATOES_BASE_URL", "https://www.rottentomatoes.com")
}

func initAddon(c *Config) {
	a := &c.Addon
	a.ID = getConfigValue(a.ID, "ADDON_ID", "community.ratings.aggregator")
	name := getConfigValue(a.Name, "ADDON_NAME", defaultAddonName)
	if suffix := os.Getenv("ADDON_SUFFIX"); suffix != "" && !strings.HasSuffix(name, " | "+suffix) {
		name = fmt.Sprintf("%s | %s", name, suffix)
	}
	a.Name = name
	a.Description = getConfigValue(a.Description, "ADDON_DESCRIPTION",
		"Aggregated ratings from IMDb, TMDb, Metacritic, Rotten Tomatoes, Common Sense, CringeMDB and more.")
	a.Logo = getConfigValue(a.Logo, "ADDON_LOGO", "https://emojicdn.elk.sh/%F0%9F%8E%AF?style=google")
}

// Validate reports missing required settings wrapped in ErrConfiguration.
func Validate(c Config) error {
	var missing []string
	if strings.TrimSpace(c.TMDb.APIKey) == "" {
		missing = append(missing, "TMDB_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// RequestTimeout is the per-provider upper bound.
func (h HTTP) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutMs) * time.Millisecond
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c Cache) TTL() time.Duration              { return seconds(c.TTLSeconds) }
func (c Cache) NegativeTTL() time.Duration      { return seconds(c.NegativeTTLSeconds) }
func (c Cache) LowConfidenceTTL() time.Duration { return seconds(c.LowConfidenceTTLSeconds) }

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Placeholders from sample config files don't count
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.GetLogger().WithField("key", key).WithField("value", v).Warn("Ignoring non-numeric environment value")
		return 0
	}
	return n
}
