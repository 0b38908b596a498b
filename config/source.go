package config

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/zeebo/errs/v2"
)

// Load reads the configuration at loc, which is either a file path or an
// http(s) URL.
func Load(ctx context.Context, loc string) (Config, error) {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return loadURL(ctx, loc)
	}

	fh, err := os.Open(loc)
	if err != nil {
		return Config{}, errs.Wrap(err)
	}
	defer func() { _ = fh.Close() }()

	return Parse(ctx, fh)
}

func loadURL(ctx context.Context, url string) (cfg Config, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cfg, errs.Wrap(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return cfg, errs.Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return cfg, errs.Errorf("fetching config: %s", resp.Status)
	}

	cfg, err = Parse(ctx, resp.Body)
	if err != nil {
		return cfg, err
	}

	return cfg, errs.Wrap(resp.Body.Close())
}
