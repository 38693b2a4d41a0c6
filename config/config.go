package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Feed     Feed     `koanf:"feed"`
	Window   Window   `koanf:"window"`
	Notion   Notion   `koanf:"notion"`
	Sync     Sync     `koanf:"sync"`
	Journal  Journal  `koanf:"journal"`
	Telegram Telegram `koanf:"telegram"`
}

type Feed struct {
	URL    string `koanf:"url"`
	CalDAV CalDAV `koanf:"caldav"`
}

type CalDAV struct {
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Calendar string `koanf:"calendar"`
}

// IsConfigured returns true if CalDAV credentials are present
func (c CalDAV) IsConfigured() bool {
	return c.URL != "" && c.Username != ""
}

type Window struct {
	DayPast   int `koanf:"day_past"`
	DayFuture int `koanf:"day_future"`
}

type Notion struct {
	Token            string `koanf:"token"`
	Database         string `koanf:"database"`
	IDProperty       string `koanf:"id_property"`
	DateProperty     string `koanf:"date_property"`
	LocationProperty string `koanf:"location_property"`
}

type Sync struct {
	Parallelism int `koanf:"parallelism"`
}

type Journal struct {
	Path string `koanf:"path"`
}

type Telegram struct {
	Token  string `koanf:"token"`
	ChatID int64  `koanf:"chat_id"`
}

// Load reads configuration from struct defaults, then a YAML file, then
// NOTISYNC_ environment variables. Env keys use a double underscore as
// the section separator, e.g. NOTISYNC_NOTION__ID_PROPERTY.
func Load(path string) (Config, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Config{
		Window: Window{
			DayPast:   7,
			DayFuture: 60,
		},
		Sync: Sync{
			Parallelism: 4,
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config defaults: %v", err)
		return Config{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Config{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "NOTISYNC_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "NOTISYNC_")), "__", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required settings are present and sane
func (c Config) Validate() error {
	if c.Feed.URL == "" && !c.Feed.CalDAV.IsConfigured() {
		return fmt.Errorf("either feed.url or feed.caldav must be configured")
	}
	if c.Notion.Token == "" {
		return fmt.Errorf("notion.token is required")
	}
	if c.Notion.Database == "" {
		return fmt.Errorf("notion.database is required")
	}
	if c.Notion.IDProperty == "" {
		return fmt.Errorf("notion.id_property is required")
	}
	if c.Notion.DateProperty == "" {
		return fmt.Errorf("notion.date_property is required")
	}
	if c.Window.DayPast < 0 || c.Window.DayFuture < 0 {
		return fmt.Errorf("window.day_past and window.day_future must not be negative")
	}
	return nil
}
