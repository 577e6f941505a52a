package secauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/velvetcart/secauth/password"
	"github.com/velvetcart/secauth/throttle"
	"github.com/velvetcart/secauth/token"
)

// Builder assembles an Engine. Configure, then call Build exactly once.
type Builder struct {
	config        Config
	store         IdentityStore
	throttleStore throttle.Store
	redis         redis.UniversalClient
	auditSink     AuditSink
	built         bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store IdentityStore) *Builder {
	b.store = store
	return b
}

// WithThrottleStore sets an explicit throttle backend. Takes precedence
// over WithRedis.
func (b *Builder) WithThrottleStore(store throttle.Store) *Builder {
	b.throttleStore = store
	return b
}

// WithRedis shares throttle state across instances through Redis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit destination. Audit must also be enabled
// in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("identity store required")
	}

	hasher, err := password.NewHasher(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		Secret: cfg.Token.Secret,
		TTL:    cfg.Token.TTL,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	throttleStore := b.throttleStore
	if throttleStore == nil && b.redis != nil {
		throttleStore = throttle.NewRedisStore(b.redis)
	}
	if throttleStore == nil {
		throttleStore = throttle.NewMemoryStore()
	}

	b.built = true
	return &Engine{
		config: cfg,
		store:  b.store,
		hasher: hasher,
		policy: password.Policy{
			MinLength:    cfg.Password.MinLength,
			MaxLength:    cfg.Password.MaxLength,
			HistoryCount: cfg.Password.HistoryCount,
			ExpiryDays:   cfg.Password.ExpiryDays,
		},
		tokens:  tokens,
		limiter: throttle.New(throttleStore, cfg.throttleConfig()),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		now:     time.Now,
	}, nil
}
