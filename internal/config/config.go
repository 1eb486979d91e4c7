package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "TAB_SCANNER_CONFIG"
	outputPathEnv = "TAB_SCANNER_OUTPUT"
	browserEnv    = "TAB_SCANNER_BROWSER"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig  `yaml:"logging"`
	Browser string         `yaml:"browser"`
	Output  OutputConfig   `yaml:"output"`
	Sources []SourceConfig `yaml:"sources"`
}

// LoggingConfig controls the structured log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// OutputConfig describes the static picker artifact location.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig describes a single provider with its fetch parameters.
// Endpoints are tried in order until one answers with usable data.
type SourceConfig struct {
	Name           string            `yaml:"name"`
	Domain         string            `yaml:"domain"`
	Endpoints      []string          `yaml:"endpoints"`
	AcceptLanguage string            `yaml:"acceptLanguage"`
	Headers        map[string]string `yaml:"headers"`
	CapturePath    string            `yaml:"capturePath"`
	DebugPath      string            `yaml:"debugPath"`
	LoginMarkers   []string          `yaml:"loginMarkers"`
	MinBodyBytes   int               `yaml:"minBodyBytes"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(outputPathEnv); v != "" {
		c.Output.Path = v
	}

	if v := os.Getenv(browserEnv); v != "" {
		c.Browser = v
	}
}

// Source returns the configuration block for a named source.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceConfig{}, false
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Browser != "" {
		base.Browser = override.Browser
	}

	if override.Output.Path != "" {
		base.Output = override.Output
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Browser: "chrome",
		Output:  OutputConfig{Path: "random_song.html"},
		Sources: []SourceConfig{
			{
				Name:   "ultimateguitar",
				Domain: "ultimate-guitar.com",
				Endpoints: []string{
					"https://tabs.ultimate-guitar.com/user/favorites",
					"https://tabs.ultimate-guitar.com/user/mytabs",
				},
				AcceptLanguage: "en-US,en;q=0.9",
				CapturePath:    "ug_favorites.html",
				DebugPath:      "ug_debug.html",
			},
			{
				Name:   "tab4u",
				Domain: "tab4u.com",
				Endpoints: []string{
					"https://www.tab4u.com/getMySongs.php?lan=0&otherUId=0&aID=0",
				},
				AcceptLanguage: "he-IL,he;q=0.9,en;q=0.8",
				Headers: map[string]string{
					"X-Requested-With": "XMLHttpRequest",
					"Referer":          "https://www.tab4u.com/articles/chordsbook?mySongs=2",
				},
				CapturePath:  "tab4u_mysongs.html",
				DebugPath:    "tab4u_ajax_debug.html",
				LoginMarkers: []string{"firstLoginBut", "להתחבר"},
				MinBodyBytes: 200,
			},
		},
	}
}
