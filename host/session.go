// Package host drives a vcalc session from the outside world: an HTTP API and
// a line oriented console.
package host

import (
	"log/slog"

	"storj.io/vcalc"
	"storj.io/vcalc/bitfield"
	"storj.io/vcalc/config"
	"storj.io/vcalc/expr"
)

// NewSession builds a Sync configured by cfg.
func NewSession(cfg config.Config, log *slog.Logger, onUpdate func(vcalc.Update)) (*vcalc.Sync, error) {
	field := bitfield.New()
	if err := field.SetWidth(cfg.Width); err != nil {
		return nil, err
	}
	return vcalc.New(field, expr.NewEvaluator(), vcalc.Options{
		ClearStaleBits: cfg.ClearStaleBits,
		Log:            log,
		OnUpdate:       onUpdate,
	}), nil
}
