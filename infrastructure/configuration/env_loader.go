package configuration

import (
	"os"

	"ratings-aggregator/infrastructure/logger"

	"github.com/subosito/gotenv"
)

// LoadEnvFromFile exports KEY=VALUE pairs from files such as config.env or
// .env and returns the files it read. Variables already set win. Parsing of
// a file stops at its first malformed line.
func LoadEnvFromFile(paths ...string) []string {
	var loaded []string
	for _, p := range paths {
		env, err := gotenv.Read(p)
		if env == nil {
			continue
		}
		if err != nil {
			logger.GetLogger().WithField("file", p).WithField("error", err).Warn("Env file only partially loaded")
		}
		loaded = append(loaded, p)
		for key, val := range env {
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
	return loaded
}
