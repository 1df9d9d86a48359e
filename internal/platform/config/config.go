// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trustplane/internal/risk"
	pstrings "trustplane/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database configures the Postgres pool. An empty URL selects in-memory stores,
// optionally seeded from the JSON file at MemorySeed.
type Database struct {
	URL             string
	MemorySeed      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit outbox relay. No brokers disables the relay.
type Kafka struct {
	Brokers          []string
	AuditTopic       string
	RelayInterval    time.Duration
	RelayBatchSize   int
	TopicPartitions  int32
	TopicReplication int16
	EnsureAuditTopic bool
}

// Credentials configures API key generation and hashing.
type Credentials struct {
	Prefix        string
	Length        int
	HashSalt      string
	TouchInterval time.Duration
}

// Risk carries optional overrides for scoring thresholds and rule weights.
type Risk struct {
	CriticalThreshold int
	HighThreshold     int
	MediumThreshold   int
	Weights           map[risk.RuleID]int
}

// Thresholds returns the effective bounds, defaults filled in.
func (r Risk) Thresholds() risk.Thresholds {
	return risk.Thresholds{
		Critical: r.CriticalThreshold,
		High:     r.HighThreshold,
		Medium:   r.MediumThreshold,
	}.WithDefaults()
}

// Config is the full process configuration.
type Config struct {
	Server             Server
	Database           Database
	Redis              RedisConfig
	Kafka              Kafka
	Credentials        Credentials
	Risk               Risk
	AdminJWTSigningKey string
	ConsentTTL         time.Duration
	AuditBuffer        int
	LogLevel           string
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}

	cfg := Config{
		Server: Server{
			Addr:            p.str("TRUSTPLANE_ADDR", ":8080"),
			ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: Database{
			URL:             p.str("DATABASE_URL", ""),
			MemorySeed:      p.str("MEMORY_SEED", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			Migrate:         p.boolean("MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:          p.list("KAFKA_BROKERS"),
			AuditTopic:       p.str("AUDIT_TOPIC", "trustplane.audit"),
			RelayInterval:    p.duration("AUDIT_RELAY_INTERVAL", time.Second),
			RelayBatchSize:   p.integer("AUDIT_RELAY_BATCH_SIZE", 100),
			TopicPartitions:  int32(p.integer("AUDIT_TOPIC_PARTITIONS", 3)),
			TopicReplication: int16(p.integer("AUDIT_TOPIC_REPLICATION", 1)),
			EnsureAuditTopic: p.boolean("AUDIT_TOPIC_ENSURE", true),
		},
		Credentials: Credentials{
			Prefix:        p.str("CREDENTIAL_PREFIX", "tp"),
			Length:        p.integer("CREDENTIAL_LENGTH", 32),
			HashSalt:      p.str("CREDENTIAL_HASH_SALT", ""),
			TouchInterval: p.duration("CREDENTIAL_TOUCH_INTERVAL", time.Minute),
		},
		Risk: Risk{
			CriticalThreshold: p.integer("RISK_CRITICAL_THRESHOLD", 0),
			HighThreshold:     p.integer("RISK_HIGH_THRESHOLD", 0),
			MediumThreshold:   p.integer("RISK_MEDIUM_THRESHOLD", 0),
			Weights:           p.weights("RISK_WEIGHTS"),
		},
		AdminJWTSigningKey: p.str("ADMIN_JWT_SIGNING_KEY", ""),
		ConsentTTL:         p.duration("CONSENT_TTL", 365*24*time.Hour),
		AuditBuffer:        p.integer("AUDIT_BUFFER", 0),
		LogLevel:           p.str("LOG_LEVEL", "info"),
	}

	if err := errors.Join(append(p.errs, cfg.validate()...)...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error
	if c.Credentials.HashSalt == "" {
		errs = append(errs, errors.New("CREDENTIAL_HASH_SALT is required"))
	}
	if c.AdminJWTSigningKey == "" {
		errs = append(errs, errors.New("ADMIN_JWT_SIGNING_KEY is required"))
	}
	if c.Credentials.Prefix == "" || strings.Contains(c.Credentials.Prefix, "_") {
		errs = append(errs, errors.New("CREDENTIAL_PREFIX must be non-empty and must not contain '_'"))
	}
	if c.Credentials.Length < 16 {
		errs = append(errs, errors.New("CREDENTIAL_LENGTH must be at least 16"))
	}
	if c.ConsentTTL <= 0 {
		errs = append(errs, errors.New("CONSENT_TTL must be positive"))
	}
	if c.AuditBuffer < 0 {
		errs = append(errs, errors.New("AUDIT_BUFFER must not be negative"))
	}
	if c.Risk.CriticalThreshold < 0 || c.Risk.HighThreshold < 0 || c.Risk.MediumThreshold < 0 {
		errs = append(errs, errors.New("RISK_*_THRESHOLD must not be negative"))
	} else if err := c.Risk.Thresholds().Validate(); err != nil {
		errs = append(errs, err)
	}
	for rule, w := range c.Risk.Weights {
		if !risk.KnownRule(rule) {
			errs = append(errs, fmt.Errorf("RISK_WEIGHTS: unknown rule %q", rule))
		}
		if w < 0 {
			errs = append(errs, fmt.Errorf("RISK_WEIGHTS: weight for %q must not be negative", rule))
		}
	}
	if c.Database.MemorySeed != "" && c.Database.URL != "" {
		errs = append(errs, errors.New("MEMORY_SEED only applies without DATABASE_URL"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Database.URL == "" {
		errs = append(errs, errors.New("KAFKA_BROKERS requires DATABASE_URL for the audit outbox"))
	}
	return errs
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	return pstrings.SplitList(p.getenv(key), ",")
}

// weights parses "rule=n,rule=n" into per-rule overrides.
func (p *parser) weights(key string) map[risk.RuleID]int {
	pairs := p.list(key)
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[risk.RuleID]int, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			p.errs = append(p.errs, fmt.Errorf("%s: %q is not rule=weight", key, pair))
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("%s: %s: %w", key, name, err))
			continue
		}
		out[risk.RuleID(name)] = n
	}
	return out
}
