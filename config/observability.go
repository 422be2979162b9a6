package config

import "strings"

// ObservabilityConfig groups configuration for metrics emission and outbound
// notifications.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
	Notify  NotifyConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notify.Sanitize()
}

// NotifyConfig controls delivery of game status change notifications.
type NotifyConfig struct {
	SlackWebhookURL string `env:"NOTIFY_SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"NOTIFY_SLACK_CHANNEL"`
	SlackUsername   string `env:"NOTIFY_SLACK_USERNAME" envDefault:"tradepost"`
	RetryLimit      int    `env:"NOTIFY_RETRY_LIMIT"     envDefault:"2"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *NotifyConfig) Sanitize() {
	c.SlackWebhookURL = strings.TrimSpace(c.SlackWebhookURL)
	c.SlackChannel = strings.TrimSpace(c.SlackChannel)
	c.SlackUsername = strings.TrimSpace(c.SlackUsername)
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
}

// SlackEnabled reports whether Slack notifications are configured.
func (c *NotifyConfig) SlackEnabled() bool {
	return c.SlackWebhookURL != ""
}

// ObservabilityMetricsConfig controls emission of metrics to external sinks such as StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}
