package config

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/zeebo/errs/v2"
)

// ErrInvalid is returned for configurations that decode but can not be used.
var ErrInvalid = errors.New("invalid config")

// Parse decodes a JSON configuration. Missing fields keep their Default
// values and unknown fields are rejected.
func Parse(ctx context.Context, data io.Reader) (Config, error) {
	cfg := Default()

	dec := json.NewDecoder(data)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errs.Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case !c.Width.Valid():
		return errs.Errorf("%w: width %d", ErrInvalid, uint8(c.Width))
	case c.Server.LiveBuffer < 0:
		return errs.Errorf("%w: negative live_buffer", ErrInvalid)
	case c.Server.ShutdownTimeout < 0:
		return errs.Errorf("%w: negative shutdown_timeout", ErrInvalid)
	case c.Server.RateLimit < 0:
		return errs.Errorf("%w: negative rate_limit", ErrInvalid)
	case c.Server.RateLimit > 0 && c.Server.RateBurst < 1:
		return errs.Errorf("%w: rate_burst must be positive", ErrInvalid)
	}
	for name, e := range map[string]Expression{
		"int_low":   c.Random.IntLow,
		"int_high":  c.Random.IntHigh,
		"real_low":  c.Random.RealLow,
		"real_high": c.Random.RealHigh,
	} {
		if strings.TrimSpace(string(e)) == "" {
			return errs.Errorf("%w: empty random.%s", ErrInvalid, name)
		}
	}
	return nil
}
