package config

import (
	"log"
	"os"
	"strconv"
)

// Platforms the tracker site knows profiles under.
var Platforms = []string{"steam", "epic", "psn", "xbl", "switch"}

type Config struct {
	Port        string
	DatabaseURL string

	Platform string
	Username string

	RefreshIntervalMinutes int // positive; refresh timer period
	CachePath              string
	IconDir                string

	Theme        string // dark | light
	WindowWidth  int
	WindowHeight int

	DevToolsURL          string // Chrome remote debugging endpoint
	ChallengeWaitSeconds int    // how long to wait for a verification challenge
}

func Load() Config {
	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		Platform:               getEnv("RL_PLATFORM", "steam"),
		Username:               os.Getenv("RL_USERNAME"),
		RefreshIntervalMinutes: getEnvInt("REFRESH_INTERVAL_MINUTES", 10),
		CachePath:              getEnv("CACHE_PATH", "data/rl_stats.json"),
		IconDir:                getEnv("ICON_DIR", "assets/ranks"),
		Theme:                  getEnv("THEME", "dark"),
		WindowWidth:            getEnvInt("WINDOW_WIDTH", 900),
		WindowHeight:           getEnvInt("WINDOW_HEIGHT", 700),
		DevToolsURL:            getEnv("DEVTOOLS_URL", "http://localhost:9222"),
		ChallengeWaitSeconds:   getEnvInt("CHALLENGE_WAIT_SECONDS", 180),
	}

	if !validPlatform(cfg.Platform) {
		log.Printf("[Config] unknown platform %q, using steam\n", cfg.Platform)
		cfg.Platform = "steam"
	}
	if cfg.RefreshIntervalMinutes <= 0 {
		log.Println("[Config] refresh interval must be positive, using 10")
		cfg.RefreshIntervalMinutes = 10
	}
	if cfg.Theme != "dark" && cfg.Theme != "light" {
		log.Printf("[Config] unknown theme %q, using dark\n", cfg.Theme)
		cfg.Theme = "dark"
	}
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = 900
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = 700
	}
	return cfg
}

func validPlatform(p string) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
