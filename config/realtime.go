package config

import "time"

// RealtimeConfig controls the change-feed watcher and SSE delivery.
type RealtimeConfig struct {
	// ChannelPrefix namespaces change-feed pub/sub channels in Redis.
	ChannelPrefix string `env:"REALTIME_CHANNEL_PREFIX" envDefault:"changes:"`

	// KeepAlive is the interval between SSE keep-alive comments.
	KeepAlive time.Duration `env:"REALTIME_KEEPALIVE" envDefault:"25s"`

	// ClientBuffer is the per-subscriber channel buffer; slow consumers
	// falling behind this many events are dropped rather than blocking the feed.
	ClientBuffer int `env:"REALTIME_CLIENT_BUFFER" envDefault:"64"`
}

// Sanitize applies guardrails to realtime configuration values.
func (r *RealtimeConfig) Sanitize() {
	if r.ChannelPrefix == "" {
		r.ChannelPrefix = "changes:"
	}
	if r.KeepAlive < time.Second {
		r.KeepAlive = time.Second
	}
	if r.ClientBuffer < 1 {
		r.ClientBuffer = 1
	}
}
