package host

import (
	"context"
	"reflect"
	"time"

	"github.com/zeebo/mwc"

	"storj.io/vcalc/config"
)

const (
	minReloadInterval = time.Second
	maxReloadInterval = 24 * time.Hour
)

// Loader fetches the current configuration.
type Loader func(ctx context.Context) (config.Config, error)

// Reloader periodically loads the configuration and applies changed settings
// to a server.
type Reloader struct {
	Server   *Server
	Load     Loader
	Interval time.Duration

	trigger chan chan struct{}
}

// Trigger asks a running reloader to load now and waits for the attempt. It
// does nothing if the reloader is not waiting.
func (r *Reloader) Trigger() {
	ch := make(chan struct{})
	select {
	case r.trigger <- ch:
		<-ch
	default:
	}
}

// Run loads until ctx is done.
func (r *Reloader) Run(ctx context.Context) {
	interval := min(max(r.Interval, minReloadInterval), maxReloadInterval)

	var triggered chan struct{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter(interval)):
		case triggered = <-r.trigger:
		}

		r.reload(ctx)

		if triggered != nil {
			close(triggered)
			triggered = nil
		}
	}
}

func (r *Reloader) reload(ctx context.Context) {
	cfg, err := r.Load(ctx)
	if err != nil {
		r.Server.log.Warn("reloading config", "error", err)
		return
	}

	next := SettingsFrom(cfg)
	if reflect.DeepEqual(next, r.Server.Settings()) {
		return
	}
	r.Server.Reload(next)
}

// NewReloader returns a Reloader of srv. Run must be called for it to do
// anything.
func NewReloader(srv *Server, load Loader, interval time.Duration) *Reloader {
	return &Reloader{
		Server:   srv,
		Load:     load,
		Interval: interval,
		trigger:  make(chan chan struct{}),
	}
}

// jitter spreads d uniformly over [3d/4, 5d/4).
func jitter(d time.Duration) time.Duration {
	return d*3/4 + time.Duration(mwc.Float64()*float64(d/2))
}
