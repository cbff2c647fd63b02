// Package config defines the updater's tunables and how they are read and validated.
package config

import (
	"math"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/path"
)

// Defaults used when a field is absent.
const (
	DefaultLookaheadCount  = 50
	DefaultCruiseSpeed     = 4.0
	DefaultMaxDeceleration = 1.0
	DefaultPoseQueueSize   = 1
)

// Topics names the message streams the updater consumes and produces.
type Topics struct {
	Pose   string `json:"pose"`
	Path   string `json:"path"`
	Stop   string `json:"stop"`
	Output string `json:"output"`
}

// DefaultTopics are the ROS topic names used by the vehicle stack.
func DefaultTopics() Topics {
	return Topics{
		Pose:   "/current_pose",
		Path:   "/base_waypoints",
		Stop:   "/traffic_waypoint",
		Output: "/final_waypoints",
	}
}

// Config is the updater configuration.
type Config struct {
	LookaheadCount     int     `json:"lookahead_count"`
	CruiseSpeed        float64 `json:"cruise_speed"`
	MaxDeceleration    float64 `json:"max_deceleration"`
	ReloadPolicy       string  `json:"reload_policy,omitempty"`
	HeadingAwareSearch bool    `json:"heading_aware_search"`
	PoseQueueSize      int     `json:"pose_queue_size"`
	LogLevel           string  `json:"log_level,omitempty"`
	Topics             Topics  `json:"topics"`

	ConfigFilePath string `json:"-"`
}

// Default returns a config with every field at its default.
func Default() Config {
	return Config{
		LookaheadCount:  DefaultLookaheadCount,
		CruiseSpeed:     DefaultCruiseSpeed,
		MaxDeceleration: DefaultMaxDeceleration,
		PoseQueueSize:   DefaultPoseQueueSize,
		Topics:          DefaultTopics(),
	}
}

// Validate returns a configuration error naming the first bad field.
func (c *Config) Validate(cfgPath string) error {
	if c.LookaheadCount < 1 {
		return goutils.NewConfigValidationError(cfgPath,
			errors.Errorf("lookahead_count must be at least 1, got %d", c.LookaheadCount))
	}
	if c.CruiseSpeed < 0 || math.IsNaN(c.CruiseSpeed) || math.IsInf(c.CruiseSpeed, 0) {
		return goutils.NewConfigValidationError(cfgPath,
			errors.Errorf("cruise_speed must be finite and non-negative, got %v", c.CruiseSpeed))
	}
	if !(c.MaxDeceleration > 0) || math.IsInf(c.MaxDeceleration, 0) {
		return goutils.NewConfigValidationError(cfgPath,
			errors.Errorf("max_deceleration must be finite and positive, got %v", c.MaxDeceleration))
	}
	if c.PoseQueueSize < 1 {
		return goutils.NewConfigValidationError(cfgPath,
			errors.Errorf("pose_queue_size must be at least 1, got %d", c.PoseQueueSize))
	}
	if _, err := path.ReloadPolicyFromString(c.ReloadPolicy); err != nil {
		return goutils.NewConfigValidationError(cfgPath, err)
	}
	if c.LogLevel != "" {
		if _, err := logging.LevelFromString(c.LogLevel); err != nil {
			return goutils.NewConfigValidationError(cfgPath, err)
		}
	}
	return c.Topics.Validate(cfgPath + ".topics")
}

// Validate requires every topic name.
func (t Topics) Validate(cfgPath string) error {
	switch {
	case t.Pose == "":
		return goutils.NewConfigValidationFieldRequiredError(cfgPath, "pose")
	case t.Path == "":
		return goutils.NewConfigValidationFieldRequiredError(cfgPath, "path")
	case t.Stop == "":
		return goutils.NewConfigValidationFieldRequiredError(cfgPath, "stop")
	case t.Output == "":
		return goutils.NewConfigValidationFieldRequiredError(cfgPath, "output")
	}
	return nil
}

// Reload returns the parsed reload policy. Call Validate first.
func (c *Config) Reload() path.ReloadPolicy {
	policy, err := path.ReloadPolicyFromString(c.ReloadPolicy)
	if err != nil {
		return path.ReloadReject
	}
	return policy
}

// Level returns the configured log level, INFO when unset or invalid.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return logging.INFO
	}
	return level
}
