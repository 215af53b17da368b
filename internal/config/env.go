package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Every setting is read through these helpers.  An unset or malformed value
// yields the default; only must() in config.go is fatal.

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(envStr(key, ""))
	if err != nil {
		return def
	}
	return n
}

// envDur accepts Go durations ("90s", "24h").  Non-positive values fall back.
func envDur(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(envStr(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// envBool understands strconv's forms plus yes/no and on/off.
func envBool(key string, def bool) bool {
	v := strings.ToLower(envStr(key, ""))
	switch v {
	case "":
		return def
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
