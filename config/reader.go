package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/trajectory/logging"
)

// Read reads a config from the given file, substituting ${VAR} references from the environment.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath
	if err := cfg.Validate("updater"); err != nil {
		return nil, err
	}
	logger.CDebugw(ctx, "config read",
		"path", originalPath,
		"lookahead_count", cfg.LookaheadCount,
		"cruise_speed", cfg.CruiseSpeed,
		"reload_policy", cfg.Reload().String(),
	)
	return &cfg, nil
}

// FromAttributes decodes an attribute map, such as one embedded in a larger robot config, into a
// validated Config. Absent keys keep their defaults.
func FromAttributes(attributes map[string]interface{}) (*Config, error) {
	cfg := Default()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   &cfg,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode updater attributes")
	}
	if len(md.Unused) != 0 {
		return nil, errors.Errorf("unknown updater attributes %v", md.Unused)
	}
	if err := cfg.Validate("updater"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
