package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/errs/v2"
	"github.com/zeebo/hmux"
	"github.com/zeebo/swaparoo"
	"golang.org/x/time/rate"

	"storj.io/vcalc"
	"storj.io/vcalc/bitfield"
	"storj.io/vcalc/config"
	"storj.io/vcalc/internal/feed"
	"storj.io/vcalc/value"
)

// Settings are the parts of the configuration that can change while the
// server runs.
type Settings struct {
	Random         config.Random
	ClearStaleBits bool
}

func SettingsFrom(cfg config.Config) Settings {
	return Settings{Random: cfg.Random, ClearStaleBits: cfg.ClearStaleBits}
}

// Server exposes a single session over HTTP. Requests are applied to the
// session one at a time.
type Server struct {
	// Middleware, if set, wraps the handler used by Serve.
	Middleware func(http.Handler) http.Handler

	log   *slog.Logger
	feed  *feed.Feed
	enc   *zstd.Encoder
	limit *rate.Limiter // nil when requests are not limited

	mu   sync.Mutex
	sess *vcalc.Sync

	rmu      sync.Mutex // serializes Reload
	swap     swaparoo.Tracker
	settings [2]Settings
}

func NewServer(cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithWindowSize(1<<20),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err) // this can only happen with invalid options
	}

	s := &Server{
		log:  log,
		feed: feed.New(cfg.Server.LiveBuffer),
		enc:  enc,
	}
	s.settings[0] = SettingsFrom(cfg)
	if cfg.Server.RateLimit > 0 {
		s.limit = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}

	s.sess, err = NewSession(cfg, log, func(u vcalc.Update) { s.feed.Add(u) })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the settings used by future requests. It returns once no
// request uses the previous settings.
func (s *Server) Reload(set Settings) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	token := s.swap.Acquire()
	next := (token.Gen() + 1) % 2
	token.Release()

	s.settings[next] = set
	s.swap.Increment().Wait()

	s.log.Info("settings reloaded",
		"clear_stale_bits", set.ClearStaleBits,
		"random", set.Random,
	)
}

// Settings returns the settings currently in use.
func (s *Server) Settings() Settings {
	token := s.swap.Acquire()
	defer token.Release()
	return s.settings[token.Gen()%2]
}

func (s *Server) Feed() *feed.Feed { return s.feed }

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.routes()
	if s.limit != nil {
		h = &limitHandler{lim: s.limit, next: h}
	}
	return &logHandler{log: s.log, next: h}
}

func (s *Server) routes() http.Handler {
	return hmux.Dir{
		"/state": hmux.Method{
			"GET": s.handle(s.getState),
		},
		"/input": hmux.Method{
			"POST": s.handle(s.postInput),
		},
		"/toggle": hmux.Method{
			"POST": s.handle(s.postToggle),
		},
		"/width": hmux.Method{
			"POST": s.handle(s.postWidth),
		},
		"/clear": hmux.Method{
			"POST": s.handle(s.postClear),
		},
		"/commit": hmux.Method{
			"POST": s.handle(s.postCommit),
		},
		"/log": hmux.Method{
			"GET":    http.HandlerFunc(s.getLog),
			"DELETE": s.handle(s.deleteLog),
		},
		"/random": hmux.Dir{
			"/int": hmux.Method{
				"POST": s.handle(s.postRandomInt),
			},
			"/real": hmux.Method{
				"POST": s.handle(s.postRandomReal),
			},
		},
		"/grid": hmux.Method{
			"GET": s.handle(s.getGrid),
		},
		"/live": hmux.Method{
			"GET": http.HandlerFunc(s.getLive),
		},
	}
}

// Serve serves the handler on lis until ctx is canceled and then shuts down,
// waiting at most timeout for requests in flight.
func (s *Server) Serve(ctx context.Context, lis net.Listener, timeout time.Duration) error {
	h := s.Handler()
	if s.Middleware != nil {
		h = s.Middleware(h)
	}

	srv := &http.Server{
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errch := make(chan error, 1)
	go func() { errch <- srv.Serve(lis) }()

	s.log.Info("listening", "addr", lis.Addr().String())

	select {
	case err := <-errch:
		return errs.Wrap(err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return errs.Wrap(err)
	}
	if err := <-errch; !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(err)
	}
	return nil
}

//
// responses
//

type stateResponse struct {
	Input  string         `json:"input"`
	State  vcalc.State    `json:"state"`
	Status vcalc.Status   `json:"status"`
	Width  bitfield.Width `json:"width"`
	Bits   uint64         `json:"bits"`
	Value  any            `json:"value,omitempty"`
	Entry  *vcalc.Entry   `json:"entry,omitempty"`
}

type gridResponse struct {
	Width bitfield.Width `json:"width"`
	Rows  [][]Cell       `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handle runs fn with the session locked and writes its result as JSON.
// Errors are reported as a 400.
func (s *Server) handle(fn func(r *http.Request) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		s.mu.Lock()
		resp, err := fn(r)
		s.mu.Unlock()

		if err != nil {
			s.log.Debug("request failed", "path", r.URL.Path, "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) current() *stateResponse {
	resp := &stateResponse{
		Input:  s.sess.InputText(),
		State:  s.sess.State(),
		Status: s.sess.Status(),
		Width:  s.sess.Field().Width(),
		Bits:   s.sess.Field().Value(),
	}
	if v, ok := s.sess.Current(); ok {
		resp.Value = jsonValue(v)
	}
	return resp
}

// jsonValue keeps floats that JSON can not represent readable.
func jsonValue(v value.Value) any {
	if f, ok := v.Float(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return v.Format()
	}
	return v.AsAny()
}

//
// handlers
//

func (s *Server) getState(r *http.Request) (any, error) {
	return s.current(), nil
}

func (s *Server) postInput(r *http.Request) (any, error) {
	s.sess.SetClearStaleBits(s.Settings().ClearStaleBits)
	s.sess.Input(r.Form.Get("text"))
	return s.current(), nil
}

func (s *Server) postToggle(r *http.Request) (any, error) {
	bit, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("bit")))
	if err != nil {
		return nil, errs.Errorf("invalid bit %q", r.Form.Get("bit"))
	}
	if _, err := s.sess.Toggle(bit); err != nil {
		return nil, err
	}
	return s.current(), nil
}

func (s *Server) postWidth(r *http.Request) (any, error) {
	w, err := bitfield.ParseWidth(r.Form.Get("width"))
	if err != nil {
		return nil, err
	}
	if err := s.sess.SetWidth(w); err != nil {
		return nil, err
	}
	return s.current(), nil
}

func (s *Server) postClear(r *http.Request) (any, error) {
	s.sess.Clear()
	return s.current(), nil
}

func (s *Server) postCommit(r *http.Request) (any, error) {
	text := s.sess.InputText()
	if r.Form.Has("text") {
		text = r.Form.Get("text")
	}
	e, ok := s.sess.Commit(text)
	resp := s.current()
	if ok {
		resp.Entry = &e
	}
	return resp, nil
}

func (s *Server) deleteLog(r *http.Request) (any, error) {
	s.sess.ClearLog()
	return s.current(), nil
}

func (s *Server) postRandomInt(r *http.Request) (any, error) {
	rnd := s.Settings().Random
	v, err := s.sess.RandomInteger(
		formOr(r, "low", rnd.IntLow),
		formOr(r, "high", rnd.IntHigh),
	)
	if err != nil {
		return nil, err
	}
	return s.applyRandom(v), nil
}

func (s *Server) postRandomReal(r *http.Request) (any, error) {
	rnd := s.Settings().Random
	v, err := s.sess.RandomReal(
		formOr(r, "low", rnd.RealLow),
		formOr(r, "high", rnd.RealHigh),
	)
	if err != nil {
		return nil, err
	}
	return s.applyRandom(v), nil
}

// applyRandom feeds a drawn value back in as input text.
func (s *Server) applyRandom(v value.Value) *stateResponse {
	s.sess.SetClearStaleBits(s.Settings().ClearStaleBits)
	s.sess.Input(v.Format())
	return s.current()
}

func formOr(r *http.Request, key string, def config.Expression) string {
	if v := strings.TrimSpace(r.Form.Get(key)); v != "" {
		return v
	}
	return def.String()
}

func (s *Server) getGrid(r *http.Request) (any, error) {
	return gridResponse{
		Width: s.sess.Field().Width(),
		Rows:  Grid(s.sess.Field()),
	}, nil
}

func (s *Server) getLog(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := s.sess.Log()
	s.mu.Unlock()

	var data []byte
	var ctype string
	switch r.URL.Query().Get("format") {
	case "text":
		data, ctype = []byte(vcalc.WriteLog(entries)), "text/plain; charset=utf-8"
	case "binary":
		data, ctype = vcalc.AppendLog(nil, entries), "application/octet-stream"
	case "", "json":
		if entries == nil {
			entries = []vcalc.Entry{}
		}
		var err error
		data, err = json.Marshal(entries)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data, ctype = append(data, '\n'), "application/json"
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unknown format %q", r.URL.Query().Get("format"))})
		return
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Add("Vary", "Accept-Encoding")
	if acceptsZstd(r) {
		w.Header().Set("Content-Encoding", "zstd")
		data = s.enc.EncodeAll(data, nil)
	}
	_, _ = w.Write(data)
}

func acceptsZstd(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "zstd") {
			return true
		}
	}
	return false
}

func (s *Server) getLive(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("watch") != "" {
		s.watchLive(w, r)
		return
	}

	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid since %q", v)})
			return
		}
		since = n
	}

	recs := s.feed.Since(since)
	if recs == nil {
		recs = []feed.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) watchLive(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// registered before the headers are sent.
	recs, done := s.feed.Subscribe()
	defer done()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case rec := <-recs:
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\ndata: %s\n\n", rec.Seq, data)
			flusher.Flush()
		}
	}
}
