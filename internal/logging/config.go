package logging

import (
	"fmt"
	"os"
	"strings"
)

const envVar = "LOGLEVEL"

// Per-tag level overrides parsed from the environment.
var tagLevels = map[string]Level{}

func init() {
	// The environment variable is a comma-separated list of "tag=level"
	// directives; a bare "level" sets the default for untagged loggers.
	for _, d := range strings.Split(os.Getenv(envVar), ",") {
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, err := parseLevel(v[len(v)-1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid %s directive '%s': %s\n", envVar, d, err)
			continue
		}
		if len(v) == 1 {
			defaultLevel = level
		} else {
			tagLevels[v[0]] = level
		}
	}

	DefaultLogger.Level = defaultLevel
}

func determineLevel(tag string, fallback Level) Level {
	if level, ok := tagLevels[tag]; ok {
		return level
	}
	return fallback
}
