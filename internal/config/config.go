// Package config loads the YAML configuration with environment-variable
// overrides. Engine tuning thresholds live here so product tuning never
// touches algorithm code.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/claude/stagecoach/internal/analyzer"
	"github.com/claude/stagecoach/internal/session"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Recording RecordingConfig `yaml:"recording"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type RecordingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// EngineConfig groups the tunable engine thresholds. Zero values in the
// YAML fall back to the shipped defaults, so partial tuning files are safe.
type EngineConfig struct {
	Analyzer analyzer.Params `yaml:"analyzer"`
	Session  session.Params  `yaml:"session"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix STAGECOACH_ and underscore-separated
// paths:
//
//	STAGECOACH_SERVER_HOST, STAGECOACH_SERVER_PORT,
//	STAGECOACH_DB_HOST, STAGECOACH_DB_PORT, STAGECOACH_DB_NAME,
//	STAGECOACH_DB_USER, STAGECOACH_DB_PASSWORD, STAGECOACH_DB_SSLMODE,
//	STAGECOACH_AUTH_API_KEY, STAGECOACH_RECORDING_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyEngineDefaults(&cfg.Engine)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyEngineDefaults fills zero-valued tuning fields with the shipped
// defaults so a config file only needs to name the thresholds it changes.
func applyEngineDefaults(e *EngineConfig) {
	da := analyzer.DefaultParams()
	e.Analyzer = MergeAnalyzerParams(e.Analyzer, da)
	ds := session.DefaultParams()
	e.Session = MergeSessionParams(e.Session, ds)
}

// MergeAnalyzerParams fills zero-valued fields of p from d. The server's
// tuning endpoint uses it so a partial payload adjusts only the named
// thresholds.
func MergeAnalyzerParams(p, d analyzer.Params) analyzer.Params {
	merge := func(v, def float64) float64 {
		if v == 0 {
			return def
		}
		return v
	}
	p.BodyVisibilityMin = merge(p.BodyVisibilityMin, d.BodyVisibilityMin)
	p.FineVisibilityMin = merge(p.FineVisibilityMin, d.FineVisibilityMin)
	p.HeadDropThreshold = merge(p.HeadDropThreshold, d.HeadDropThreshold)
	p.ShoulderRollThreshold = merge(p.ShoulderRollThreshold, d.ShoulderRollThreshold)
	p.SlouchPenalty = merge(p.SlouchPenalty, d.SlouchPenalty)
	p.FidgetPenalty = merge(p.FidgetPenalty, d.FidgetPenalty)
	p.FidgetRadius = merge(p.FidgetRadius, d.FidgetRadius)
	p.ElbowPeakAngle = merge(p.ElbowPeakAngle, d.ElbowPeakAngle)
	p.ElbowQualitySpan = merge(p.ElbowQualitySpan, d.ElbowQualitySpan)
	p.SpreadBonusAt = merge(p.SpreadBonusAt, d.SpreadBonusAt)
	p.SpreadBonusMax = merge(p.SpreadBonusMax, d.SpreadBonusMax)
	p.PowerPoseSpreadMin = merge(p.PowerPoseSpreadMin, d.PowerPoseSpreadMin)
	p.OpenSpreadMin = merge(p.OpenSpreadMin, d.OpenSpreadMin)
	p.StraightArmAngle = merge(p.StraightArmAngle, d.StraightArmAngle)
	p.SteepleMaxSeparation = merge(p.SteepleMaxSeparation, d.SteepleMaxSeparation)
	p.PointingRatioMax = merge(p.PointingRatioMax, d.PointingRatioMax)
	p.PointingMinExtension = merge(p.PointingMinExtension, d.PointingMinExtension)
	p.EmphasisImpactMin = merge(p.EmphasisImpactMin, d.EmphasisImpactMin)
	p.WideStanceMin = merge(p.WideStanceMin, d.WideStanceMin)
	return p
}

// MergeSessionParams fills zero-valued fields of p from d.
func MergeSessionParams(p, d session.Params) session.Params {
	merge := func(v, def float64) float64 {
		if v == 0 {
			return def
		}
		return v
	}
	if p.ThrottleMillis == 0 {
		p.ThrottleMillis = d.ThrottleMillis
	}
	if p.SmoothWindow == 0 {
		p.SmoothWindow = d.SmoothWindow
	}
	p.StreakThreshold = merge(p.StreakThreshold, d.StreakThreshold)
	p.StreakSustainSecs = merge(p.StreakSustainSecs, d.StreakSustainSecs)
	p.GestureMinImpact = merge(p.GestureMinImpact, d.GestureMinImpact)
	p.GoodPostureFloor = merge(p.GoodPostureFloor, d.GoodPostureFloor)
	p.CelebrationImpactMin = merge(p.CelebrationImpactMin, d.CelebrationImpactMin)
	p.CelebrationWarmupSecs = merge(p.CelebrationWarmupSecs, d.CelebrationWarmupSecs)
	p.CelebrationCooldownSecs = merge(p.CelebrationCooldownSecs, d.CelebrationCooldownSecs)
	p.TipHoldSecs = merge(p.TipHoldSecs, d.TipHoldSecs)
	p.SmileThreshold = merge(p.SmileThreshold, d.SmileThreshold)
	return p
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STAGECOACH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("STAGECOACH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STAGECOACH_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("STAGECOACH_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("STAGECOACH_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("STAGECOACH_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("STAGECOACH_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("STAGECOACH_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("STAGECOACH_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("STAGECOACH_RECORDING_DIR"); v != "" {
		cfg.Recording.Dir = v
		cfg.Recording.Enabled = true
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Recording.Enabled && c.Recording.Dir == "" {
		return fmt.Errorf("recording.dir is required when recording is enabled")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
