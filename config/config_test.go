package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/path"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate("updater"), test.ShouldBeNil)
	test.That(t, cfg.LookaheadCount, test.ShouldEqual, 50)
	test.That(t, cfg.CruiseSpeed, test.ShouldEqual, 4.0)
	test.That(t, cfg.Reload(), test.ShouldEqual, path.ReloadReject)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, cfg.Topics.Output, test.ShouldEqual, "/final_waypoints")
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero lookahead", func(c *Config) { c.LookaheadCount = 0 }, "lookahead_count"},
		{"negative cruise", func(c *Config) { c.CruiseSpeed = -1 }, "cruise_speed"},
		{"zero deceleration", func(c *Config) { c.MaxDeceleration = 0 }, "max_deceleration"},
		{"zero pose queue", func(c *Config) { c.PoseQueueSize = 0 }, "pose_queue_size"},
		{"bad reload policy", func(c *Config) { c.ReloadPolicy = "merge" }, "reload policy"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "loud"},
		{"missing output topic", func(c *Config) { c.Topics.Output = "" }, "output"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate("updater")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
			test.That(t, err.Error(), test.ShouldContainSubstring, "updater")
		})
	}

	cfg := Default()
	cfg.CruiseSpeed = 0
	cfg.ReloadPolicy = "replace"
	cfg.LogLevel = "debug"
	test.That(t, cfg.Validate("updater"), test.ShouldBeNil)
	test.That(t, cfg.Reload(), test.ShouldEqual, path.ReloadReplace)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)
}

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("UPDATER_LOOKAHEAD", "20")

	file := filepath.Join(t.TempDir(), "updater.json")
	err := os.WriteFile(file, []byte(`{
		"lookahead_count": ${UPDATER_LOOKAHEAD},
		"reload_policy": "replace",
		"topics": {"output": "/planned"}
	}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cfg, err := Read(context.Background(), file, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.LookaheadCount, test.ShouldEqual, 20)
	test.That(t, cfg.CruiseSpeed, test.ShouldEqual, DefaultCruiseSpeed)
	test.That(t, cfg.Reload(), test.ShouldEqual, path.ReloadReplace)
	test.That(t, cfg.Topics.Output, test.ShouldEqual, "/planned")
	test.That(t, cfg.Topics.Pose, test.ShouldEqual, "/current_pose")
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, file)

	_, err = Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReaderRejectsInvalid(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader(context.Background(), "", strings.NewReader(`{"lookahead_count": 0}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lookahead_count")

	_, err = FromReader(context.Background(), "", strings.NewReader(`{`), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromAttributes(t *testing.T) {
	cfg, err := FromAttributes(map[string]interface{}{
		"lookahead_count":      float64(30),
		"max_deceleration":     2.5,
		"heading_aware_search": true,
		"topics":               map[string]interface{}{"stop": "/stop_line"},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.LookaheadCount, test.ShouldEqual, 30)
	test.That(t, cfg.MaxDeceleration, test.ShouldEqual, 2.5)
	test.That(t, cfg.HeadingAwareSearch, test.ShouldBeTrue)
	test.That(t, cfg.Topics.Stop, test.ShouldEqual, "/stop_line")
	test.That(t, cfg.Topics.Path, test.ShouldEqual, "/base_waypoints")

	_, err = FromAttributes(map[string]interface{}{"lookahead": 30})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lookahead")

	_, err = FromAttributes(map[string]interface{}{"pose_queue_size": -2})
	test.That(t, err, test.ShouldNotBeNil)
}
