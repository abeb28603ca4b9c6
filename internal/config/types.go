// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kstep/chores/pkg/types"
)

const (
	// DefaultLostFilmUserAgent is a desktop browser UA; the tracker rejects
	// obviously scripted clients.
	DefaultLostFilmUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/33.0.1750.152 Safari/537.36"

	redacted = "***"
)

// ErrMissingValue is the sentinel error wrapped by MissingValueError.
var ErrMissingValue = errors.New("missing configuration value")

type (
	// Config is the merged configuration of every tool.
	Config struct {
		ADSL         ADSLConfig         `mapstructure:"adsl" toml:"adsl"`
		LostFilm     LostFilmConfig     `mapstructure:"lostfilm" toml:"lostfilm"`
		Transmission TransmissionConfig `mapstructure:"transmission" toml:"transmission"`
		Pushbullet   PushbulletConfig   `mapstructure:"pushbullet" toml:"pushbullet"`
		DNS          DNSConfig          `mapstructure:"dns" toml:"dns"`
		Mail         MailConfig         `mapstructure:"mail" toml:"mail"`
		Pocket       PocketConfig       `mapstructure:"pocket" toml:"pocket"`
		NginxCache   NginxCacheConfig   `mapstructure:"nginx_cache" toml:"nginx_cache"`
		Automount    AutomountConfig    `mapstructure:"automount" toml:"automount"`
		UI           UIConfig           `mapstructure:"ui" toml:"ui"`

		// Sources lists the files merged into this config, main file first.
		Sources []string `mapstructure:"-" toml:"-"`
	}

	// ADSLConfig holds the provider account used by the stats page.
	ADSLConfig struct {
		types.Credentials `mapstructure:",squash"`
		BaseURL           string `mapstructure:"base_url" toml:"base_url"`
	}

	// LostFilmConfig holds the tracker account and the title filters.
	LostFilmConfig struct {
		types.Credentials `mapstructure:",squash"`
		Include           []string `mapstructure:"include" toml:"include"`
		Exclude           []string `mapstructure:"exclude" toml:"exclude"`
		BaseURL           string   `mapstructure:"base_url" toml:"base_url"`
		LoginURL          string   `mapstructure:"login_url" toml:"login_url"`
		UserAgent         string   `mapstructure:"user_agent" toml:"user_agent"`
	}

	// TransmissionConfig points at the daemon RPC endpoint. Credentials are optional.
	TransmissionConfig struct {
		URL      string `mapstructure:"url" toml:"url"`
		Username string `mapstructure:"username" toml:"username"`
		Password string `mapstructure:"password" toml:"password"`
	}

	// PushbulletConfig holds the API token and the device pushes originate from.
	PushbulletConfig struct {
		AccessToken string `mapstructure:"access_token" toml:"access_token"`
		DeviceIden  string `mapstructure:"device_iden" toml:"device_iden"`
		BaseURL     string `mapstructure:"base_url" toml:"base_url"`
	}

	// DNSConfig holds the registrar token and the managed domain.
	DNSConfig struct {
		Domain    string `mapstructure:"domain" toml:"domain"`
		Subdomain string `mapstructure:"subdomain" toml:"subdomain"`
		Token     string `mapstructure:"token" toml:"token"`
		BaseURL   string `mapstructure:"base_url" toml:"base_url"`
		LegacyURL string `mapstructure:"legacy_url" toml:"legacy_url"`
		ProbeAddr string `mapstructure:"probe_addr" toml:"probe_addr"`
	}

	// MailConfig configures the SMTP fallback of the dynamic DNS notifier.
	MailConfig struct {
		SMTPAddr string `mapstructure:"smtp_addr" toml:"smtp_addr"`
		From     string `mapstructure:"from" toml:"from"`
		To       string `mapstructure:"to" toml:"to"`
		ToName   string `mapstructure:"to_name" toml:"to_name"`
	}

	// PocketConfig holds the read-it-later API keys and the queue file path.
	PocketConfig struct {
		ConsumerKey string `mapstructure:"consumer_key" toml:"consumer_key"`
		AccessToken string `mapstructure:"access_token" toml:"access_token"`
		Queue       string `mapstructure:"queue" toml:"queue"`
		BaseURL     string `mapstructure:"base_url" toml:"base_url"`
	}

	// NginxCacheConfig names the cache directory inspected by default.
	NginxCacheConfig struct {
		Dir string `mapstructure:"dir" toml:"dir"`
	}

	// AutomountConfig names the directory mount points are created under.
	AutomountConfig struct {
		MediaDir string `mapstructure:"media_dir" toml:"media_dir"`
	}

	// UIConfig holds terminal output preferences.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}

	// MissingValueError names a required key that is empty.
	MissingValueError struct {
		Key string
	}
)

// DefaultConfig returns the configuration used when no file sets a value.
// The pocket queue default depends on the config home and is filled by the loader.
func DefaultConfig() *Config {
	return &Config{
		ADSL: ADSLConfig{BaseURL: "https://www.adsl.by"},
		LostFilm: LostFilmConfig{
			BaseURL:   "http://www.lostfilm.tv/",
			LoginURL:  "http://login1.bogi.ru/login.php",
			UserAgent: DefaultLostFilmUserAgent,
		},
		Transmission: TransmissionConfig{URL: "http://localhost:9091/transmission/rpc"},
		Pushbullet:   PushbulletConfig{BaseURL: "https://api.pushbullet.com/v2"},
		DNS: DNSConfig{
			Subdomain: "home",
			BaseURL:   "https://pddimp.yandex.ru/api2/admin/dns",
			LegacyURL: "https://pddimp.yandex.ru/nsapi",
			ProbeAddr: "8.8.8.8:53",
		},
		Mail:       MailConfig{SMTPAddr: "localhost:25", From: "root@localhost", To: "root@localhost", ToName: "Master"},
		Pocket:     PocketConfig{BaseURL: "https://getpocket.com/v3"},
		NginxCache: NginxCacheConfig{Dir: "/var/lib/nginx/cache"},
		Automount:  AutomountConfig{MediaDir: "/media"},
	}
}

// Require returns a MissingValueError for the first empty value in pairs,
// given as key, value, key, value...
func Require(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return &MissingValueError{Key: pairs[i]}
		}
	}
	return nil
}

// Redacted returns a copy with every secret replaced by a placeholder.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&out.ADSL.Password)
	mask(&out.LostFilm.Password)
	mask(&out.Transmission.Password)
	mask(&out.Pushbullet.AccessToken)
	mask(&out.DNS.Token)
	mask(&out.Pocket.AccessToken)
	mask(&out.Pocket.ConsumerKey)
	out.Sources = nil
	return &out
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Key)
}

// Unwrap returns ErrMissingValue.
func (e *MissingValueError) Unwrap() error { return ErrMissingValue }
