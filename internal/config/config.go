// Package config carrega a configuração do gateway.
//
// Ordem de precedência (a última vence): defaults, arquivo YAML apontado
// por CONFIG_FILE, variáveis de ambiente. Um .env no diretório corrente é
// carregado antes de tudo e só preenche variáveis que ainda não existem.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string         `yaml:"listen_addr"`
	Upstream   UpstreamConfig `yaml:"upstream"`
	Limiter    LimiterConfig  `yaml:"limiter"`
	Ingress    IngressConfig  `yaml:"ingress"`
	Stats      StatsConfig    `yaml:"stats"`
}

type UpstreamConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// LimiterConfig: no máximo Limit submissões por Window.
type LimiterConfig struct {
	Window time.Duration `yaml:"window"`
	Limit  int           `yaml:"limit"`
	// AcquireTimeout <= 0 espera indefinidamente.
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

type IngressConfig struct {
	Enabled   bool    `yaml:"enabled"`
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`
	KeyHeader string  `yaml:"key_header"`
	TrustXFF  bool    `yaml:"trust_xff"`
}

type StatsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
}

func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Upstream: UpstreamConfig{
			URL:     "https://ismp.crpt.ru/api/v3/lk/documents/create",
			Timeout: 30 * time.Second,
		},
		Limiter: LimiterConfig{
			Window: time.Minute,
			Limit:  5,
		},
		Ingress: IngressConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
		},
		Stats: StatsConfig{
			Prefix: "crpt:stats",
			TTL:    24 * time.Hour,
		},
	}
}

// Load monta a Config final e valida.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse CONFIG_FILE %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error
	setString(&cfg.ListenAddr, "LISTEN_ADDR")

	setString(&cfg.Upstream.URL, "UPSTREAM_URL")
	setString(&cfg.Upstream.Token, "UPSTREAM_TOKEN")
	errs = append(errs, setDuration(&cfg.Upstream.Timeout, "UPSTREAM_TIMEOUT"))

	errs = append(errs,
		setDuration(&cfg.Limiter.Window, "RATE_WINDOW"),
		setInt(&cfg.Limiter.Limit, "RATE_LIMIT"),
		setDuration(&cfg.Limiter.AcquireTimeout, "ACQUIRE_TIMEOUT"),
	)

	errs = append(errs,
		setBool(&cfg.Ingress.Enabled, "INGRESS_ENABLED"),
		setFloat(&cfg.Ingress.RPS, "INGRESS_RPS"),
		setInt(&cfg.Ingress.Burst, "INGRESS_BURST"),
		setBool(&cfg.Ingress.TrustXFF, "TRUST_XFF"),
	)
	setString(&cfg.Ingress.KeyHeader, "INGRESS_KEY_HEADER")

	errs = append(errs,
		setBool(&cfg.Stats.Enabled, "STATS_ENABLED"),
		setInt(&cfg.Stats.RedisDB, "STATS_REDIS_DB"),
		setDuration(&cfg.Stats.TTL, "STATS_TTL"),
	)
	setString(&cfg.Stats.RedisAddr, "STATS_REDIS_ADDR")
	setString(&cfg.Stats.RedisPassword, "STATS_REDIS_PASSWORD")
	setString(&cfg.Stats.Prefix, "STATS_PREFIX")

	return errors.Join(errs...)
}

// Validate checa os valores finais. As mensagens usam o nome da variável de
// ambiente correspondente.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Upstream.URL) == "" {
		errs = append(errs, errors.New("UPSTREAM_URL is required"))
	}
	if c.Limiter.Window <= 0 {
		errs = append(errs, fmt.Errorf("RATE_WINDOW must be > 0, got: %s", c.Limiter.Window))
	}
	if c.Limiter.Limit <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT must be > 0, got: %d", c.Limiter.Limit))
	}
	if c.Ingress.Enabled {
		if c.Ingress.RPS <= 0 {
			errs = append(errs, errors.New("INGRESS_RPS must be > 0"))
		}
		if c.Ingress.Burst <= 0 {
			errs = append(errs, errors.New("INGRESS_BURST must be > 0"))
		}
	}
	if c.Stats.Enabled && strings.TrimSpace(c.Stats.RedisAddr) == "" {
		errs = append(errs, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true"))
	}
	return errors.Join(errs...)
}

func lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, k string) {
	if v, ok := lookup(k); ok {
		*dst = v
	}
}

func setInt(dst *int, k string) error {
	v, ok := lookup(k)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", k, err)
	}
	*dst = i
	return nil
}

func setFloat(dst *float64, k string) error {
	v, ok := lookup(k)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", k, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, k string) error {
	v, ok := lookup(k)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", k, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, k string) error {
	v, ok := lookup(k)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", k, err)
	}
	*dst = d
	return nil
}
