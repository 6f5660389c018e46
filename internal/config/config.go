// Package config loads toll-console settings from defaults, an optional
// config file, TOLLCONSOLE_* environment variables and explicit overrides,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TOLLCONSOLE"

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Console ConsoleConfig `mapstructure:"console"`
	Log     LogConfig     `mapstructure:"log"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StaticDir       string        `mapstructure:"static_dir"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type ConsoleConfig struct {
	FlashTTL time.Duration `mapstructure:"flash_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type IngestConfig struct {
	GTFSRTURL        string   `mapstructure:"gtfsrt_url"`
	SIRIXMLURL       string   `mapstructure:"siri_xml_url"`
	SIRIJSONURL      string   `mapstructure:"siri_json_url"`
	AMQPURL          string   `mapstructure:"amqp_url"`
	AMQPQueue        string   `mapstructure:"amqp_queue"`
	KafkaBrokers     []string `mapstructure:"kafka_brokers"`
	KafkaTopic       string   `mapstructure:"kafka_topic"`
	KafkaGroupID     string   `mapstructure:"kafka_group_id"`
	RefreshMinSecs   int      `mapstructure:"refresh_min_secs"`
	GeohashPrecision uint     `mapstructure:"geohash_precision"`
}

// Ingest source kinds.
const (
	SourceGTFSRT   = "gtfsrt"
	SourceSIRIXML  = "siri-xml"
	SourceSIRIJSON = "siri-json"
	SourceAMQP     = "amqp"
	SourceKafka    = "kafka"
)

// Sources lists the configured ingest sources.
func (c IngestConfig) Sources() []string {
	var out []string
	if c.GTFSRTURL != "" {
		out = append(out, SourceGTFSRT)
	}
	if c.SIRIXMLURL != "" {
		out = append(out, SourceSIRIXML)
	}
	if c.SIRIJSONURL != "" {
		out = append(out, SourceSIRIJSON)
	}
	if c.AMQPURL != "" {
		out = append(out, SourceAMQP)
	}
	if len(c.KafkaBrokers) > 0 {
		out = append(out, SourceKafka)
	}
	return out
}

// Source is the single configured ingest source, or "" when ingest is off.
func (c IngestConfig) Source() string {
	if s := c.Sources(); len(s) == 1 {
		return s[0]
	}
	return ""
}

func (c IngestConfig) RefreshMin() time.Duration {
	return time.Duration(c.RefreshMinSecs) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.static_dir", "./static")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("console.flash_ttl", 3*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("ingest.gtfsrt_url", "")
	v.SetDefault("ingest.siri_xml_url", "")
	v.SetDefault("ingest.siri_json_url", "")
	v.SetDefault("ingest.amqp_url", "")
	v.SetDefault("ingest.amqp_queue", "gps_samples")
	v.SetDefault("ingest.kafka_brokers", []string{})
	v.SetDefault("ingest.kafka_topic", "gps-samples")
	v.SetDefault("ingest.kafka_group_id", "toll-console")
	v.SetDefault("ingest.refresh_min_secs", 10)
	v.SetDefault("ingest.geohash_precision", 8)
}

// Load reads path when non-empty, then applies the environment and
// overrides. Override keys use the dotted form, e.g. "http.port".
func Load(path string, overrides map[string]any) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Ingest.KafkaBrokers = splitList(cfg.Ingest.KafkaBrokers)
	cfg.HTTP.AllowedOrigins = splitList(cfg.HTTP.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port out of range: %d", c.HTTP.Port))
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("http.shutdown_timeout must be positive"))
	}
	if c.Console.FlashTTL <= 0 {
		errs = append(errs, errors.New("console.flash_ttl must be positive"))
	}
	if src := c.Ingest.Sources(); len(src) > 1 {
		errs = append(errs, fmt.Errorf("at most one ingest source may be configured, got %s", strings.Join(src, ", ")))
	}
	if c.Ingest.RefreshMinSecs <= 0 {
		errs = append(errs, errors.New("ingest.refresh_min_secs must be positive"))
	}
	if c.Ingest.GeohashPrecision < 1 || c.Ingest.GeohashPrecision > 12 {
		errs = append(errs, fmt.Errorf("ingest.geohash_precision must be between 1 and 12, got %d", c.Ingest.GeohashPrecision))
	}
	if c.Ingest.AMQPURL != "" && c.Ingest.AMQPQueue == "" {
		errs = append(errs, errors.New("ingest.amqp_queue is required with ingest.amqp_url"))
	}
	if len(c.Ingest.KafkaBrokers) > 0 && c.Ingest.KafkaTopic == "" {
		errs = append(errs, errors.New("ingest.kafka_topic is required with ingest.kafka_brokers"))
	}
	return errors.Join(errs...)
}
