package beacon

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Defaults mirror the teacher's own constants for the equivalent settings.
const (
	DefaultLargeThreshold     = 250
	DefaultInvalidWaitTime    = 1 * time.Second
	DefaultGlobalRateLimit    = 50 // requests per second, platform-documented.
	DefaultRateLimitJitter    = 10 * time.Millisecond
	DefaultRateLimitSafety    = 1 * time.Second
	DefaultRetries            = 1
	DefaultHTTPTimeout        = 10 * time.Second
	DefaultProtocolVersion    = 10
)

// Config bundles the settings a Session and a rest.Client share: the
// per-endpoint Client/Handlers surface the teacher exposes is out of scope
// here, so this collapses token, gateway, and request tuning into one
// struct.
type Config struct {
	// Token is the bearer credential, immutable for the life of every
	// session and request built from this Config.
	Token string

	// UserAgent identifies the client to the REST API; distinguishes bot
	// from user sessions.
	UserAgent string

	// Intents is the gateway intents bitmask sent on Identify.
	Intents uint64

	// Shard is an optional (id, total) pair; nil means unsharded.
	Shard *[2]int

	// Presence seeds the Identify payload's optional presence field.
	Presence *PresenceUpdate

	// LargeThreshold is the Identify payload's large_threshold field.
	LargeThreshold int

	// Compress requests payload compression on Identify.
	Compress bool

	// ProtocolVersion seeds the Identify payload's "v" field and is
	// appended to the gateway URL as "?v=" before dialing, via
	// WithProtocolVersion. The REST base URL carries its own versioned
	// path prefix instead and doesn't use this.
	ProtocolVersion int

	// HTTPTimeout bounds a single REST round-trip.
	HTTPTimeout time.Duration

	// Retries gates the rest package's single retry: at 1 or more, a
	// request that fails on transport or with a 429 is retried once, never
	// more; below 1 it is not retried. WithDefaults replaces a zero value
	// with DefaultRetries, so only a negative value disables the retry.
	Retries int

	// GlobalRateLimit overrides DefaultGlobalRateLimit for platforms with
	// a different documented global budget.
	GlobalRateLimit int

	// RateLimitJitter bounds the random delay added after a per-route
	// bucket's reset_at to avoid thundering herds.
	RateLimitJitter time.Duration

	// RateLimitSafety is the margin pushed onto reset_at when a bucket is
	// optimistically refilled ahead of authoritative headers.
	RateLimitSafety time.Duration
}

// Identity renders the Config's properties into the frozen Identify payload
// replayed on every (re)identify.
func (c *Config) Identity() Identify {
	return Identify{
		Token: c.Token,
		Properties: IdentifyConnectionProperties{
			OS:      "linux",
			Browser: "beacon-go",
			Device:  "beacon-go",
		},
		LargeThreshold: c.LargeThreshold,
		Compress:       c.Compress,
		Version:        c.ProtocolVersion,
		Shard:          c.Shard,
		Intents:        c.Intents,
		Presence:       c.Presence,
	}
}

// WithProtocolVersion appends c.ProtocolVersion to rawURL as a "v" query
// parameter, preserving any query string rawURL already carries.
func (c Config) WithProtocolVersion(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("beacon: parse gateway url: %w", err)
	}

	q := u.Query()
	q.Set("v", strconv.Itoa(c.ProtocolVersion))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// WithDefaults returns a copy of c with every zero-valued tunable replaced
// by its documented default.
func (c Config) WithDefaults() Config {
	if c.LargeThreshold == 0 {
		c.LargeThreshold = DefaultLargeThreshold
	}

	if c.ProtocolVersion == 0 {
		c.ProtocolVersion = DefaultProtocolVersion
	}

	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}

	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}

	if c.GlobalRateLimit == 0 {
		c.GlobalRateLimit = DefaultGlobalRateLimit
	}

	if c.RateLimitJitter == 0 {
		c.RateLimitJitter = DefaultRateLimitJitter
	}

	if c.RateLimitSafety == 0 {
		c.RateLimitSafety = DefaultRateLimitSafety
	}

	return c
}
