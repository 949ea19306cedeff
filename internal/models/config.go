package models

import (
	"fmt"
	"time"
)

// Thresholds holds the cut-off values the insight rules compare metrics against.
type Thresholds struct {
	CriticalLoadTime     time.Duration
	SlowLoadTime         time.Duration
	LargePageSize        int64
	WeakSecurityMissing  int
	TitleMinLength       int
	TitleMaxLength       int
	DescriptionMinLength int
	DescriptionMaxLength int
	ThinContentWords     int
	MaxExternalLinks     int
}

// Config holds the engine configuration for ultron
type Config struct {
	Timeout           time.Duration
	MaxWorkers        int
	UserAgent         string
	MaxRedirects      int
	MaxBodyBytes      int64
	RequestsPerSecond float64
	VerifyTLS         bool
	// BlockPrivateNetworks refuses connections to loopback, private and
	// other non-public addresses. Enable it when URLs come from untrusted callers.
	BlockPrivateNetworks bool
	Thresholds           Thresholds
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1, got %d", c.MaxWorkers)
	}
	if c.MaxWorkers > 100 {
		return fmt.Errorf("max workers cannot exceed 100, got %d", c.MaxWorkers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max redirects cannot be negative, got %d", c.MaxRedirects)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative, got %v", c.RequestsPerSecond)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return c.Thresholds.Validate()
}

// Validate checks that every threshold range is ordered and non-negative.
func (t Thresholds) Validate() error {
	if t.SlowLoadTime <= 0 || t.CriticalLoadTime < t.SlowLoadTime {
		return fmt.Errorf("load time thresholds must satisfy 0 < slow <= critical, got slow=%v critical=%v",
			t.SlowLoadTime, t.CriticalLoadTime)
	}
	if t.LargePageSize <= 0 {
		return fmt.Errorf("large page size must be positive, got %d", t.LargePageSize)
	}
	if t.WeakSecurityMissing < 1 {
		return fmt.Errorf("weak security threshold must be at least 1, got %d", t.WeakSecurityMissing)
	}
	if t.TitleMinLength < 0 || t.TitleMaxLength < t.TitleMinLength {
		return fmt.Errorf("invalid title length range [%d, %d]", t.TitleMinLength, t.TitleMaxLength)
	}
	if t.DescriptionMinLength < 0 || t.DescriptionMaxLength < t.DescriptionMinLength {
		return fmt.Errorf("invalid description length range [%d, %d]", t.DescriptionMinLength, t.DescriptionMaxLength)
	}
	if t.ThinContentWords < 0 || t.MaxExternalLinks < 0 {
		return fmt.Errorf("content thresholds cannot be negative")
	}
	return nil
}

// Clone creates a copy of the config so callers can tweak it without racing the engine
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// DefaultThresholds returns the stock insight thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalLoadTime:     3 * time.Second,
		SlowLoadTime:         1 * time.Second,
		LargePageSize:        2 << 20,
		WeakSecurityMissing:  3,
		TitleMinLength:       30,
		TitleMaxLength:       60,
		DescriptionMinLength: 120,
		DescriptionMaxLength: 160,
		ThinContentWords:     300,
		MaxExternalLinks:     100,
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:           10 * time.Second,
		MaxWorkers:        5,
		UserAgent:         "Mozilla/5.0 (compatible; Ultron/1.0; +https://github.com/ultronhq/ultron)",
		MaxRedirects:      10,
		MaxBodyBytes:      10 << 20,
		RequestsPerSecond: 0,
		VerifyTLS:         true,
		Thresholds:        DefaultThresholds(),
	}
}
