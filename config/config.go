package config

import (
	"encoding/json"
	"time"

	"storj.io/vcalc/bitfield"
)

type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	dur, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Expression is text handed to the evaluator, such as a random bound.
type Expression string

func (e Expression) String() string { return string(e) }

type Config struct {
	Width          bitfield.Width `json:"width"`
	ClearStaleBits bool           `json:"clear_stale_bits"`
	Random         Random         `json:"random"`
	Server         Server         `json:"server"`
}

// Random holds the default bounds of random draws.
type Random struct {
	IntLow   Expression `json:"int_low"`
	IntHigh  Expression `json:"int_high"`
	RealLow  Expression `json:"real_low"`
	RealHigh Expression `json:"real_high"`
}

type Server struct {
	Addr            string   `json:"addr"`
	LiveBuffer      int      `json:"live_buffer"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`

	// RateLimit is the sustained number of requests per second accepted by
	// the HTTP server, with bursts of up to RateBurst. Zero disables limiting.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Width: bitfield.Width32,
		Random: Random{
			IntLow:   "0",
			IntHigh:  "100",
			RealLow:  "0",
			RealHigh: "1",
		},
		Server: Server{
			LiveBuffer:      128,
			ShutdownTimeout: Duration(5 * time.Second),
			RateBurst:       1,
		},
	}
}
