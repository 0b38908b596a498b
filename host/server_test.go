package host

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/assert"

	"storj.io/vcalc"
	"storj.io/vcalc/bitfield"
	"storj.io/vcalc/config"
	"storj.io/vcalc/internal/feed"
)

type testServer struct {
	t   *testing.T
	srv *Server
	hs  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	srv, err := NewServer(config.Default(), nil)
	assert.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &testServer{t: t, srv: srv, hs: hs}
}

func (ts *testServer) do(method, path string, form url.Values, into any) int {
	ts.t.Helper()

	req, err := http.NewRequest(method, ts.hs.URL+path, strings.NewReader(form.Encode()))
	assert.NoError(ts.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()

	if into != nil {
		assert.NoError(ts.t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestServerScenario(t *testing.T) {
	ts := newTestServer(t)

	var st stateResponse
	assert.Equal(t, ts.do("POST", "/input", url.Values{"text": {"10"}}, &st), http.StatusOK)
	assert.Equal(t, st.State, vcalc.State{Decimal: "10", Binary: "1010", Hex: "A"})
	assert.Equal(t, st.Status, vcalc.StatusInteger)
	assert.Equal(t, st.Bits, uint64(10))
	assert.Equal(t, st.Width, bitfield.Width32)
	assert.Equal(t, st.Value, any(float64(10)))

	st = stateResponse{}
	assert.Equal(t, ts.do("POST", "/toggle", url.Values{"bit": {"0"}}, &st), http.StatusOK)
	assert.Equal(t, st.State, vcalc.State{Decimal: "11", Binary: "1011", Hex: "B"})
	assert.Equal(t, st.Input, "10")

	st = stateResponse{}
	assert.Equal(t, ts.do("POST", "/commit", url.Values{"text": {"10+1"}}, &st), http.StatusOK)
	assert.That(t, st.Entry != nil)
	assert.Equal(t, *st.Entry, vcalc.Entry{Expression: "10+1", Decimal: "11", Binary: "1011", Hex: "B"})
	assert.That(t, st.State.Empty())
	assert.Equal(t, st.Bits, uint64(0))

	var log []vcalc.Entry
	assert.Equal(t, ts.do("GET", "/log", nil, &log), http.StatusOK)
	assert.Equal(t, len(log), 1)

	assert.Equal(t, ts.do("DELETE", "/log", nil, nil), http.StatusOK)
	log = nil
	assert.Equal(t, ts.do("GET", "/log", nil, &log), http.StatusOK)
	assert.Equal(t, len(log), 0)
}

func TestServerState(t *testing.T) {
	ts := newTestServer(t)

	ts.do("POST", "/input", url.Values{"text": {"10"}}, nil)

	var st stateResponse
	assert.Equal(t, ts.do("POST", "/input", url.Values{"text": {"-5"}}, &st), http.StatusOK)
	assert.Equal(t, st.State, vcalc.State{Decimal: "-5"})
	assert.Equal(t, st.Status, vcalc.StatusNonInteger)
	assert.Equal(t, st.Bits, uint64(10))

	st = stateResponse{}
	assert.Equal(t, ts.do("GET", "/state", nil, &st), http.StatusOK)
	assert.Equal(t, st.Input, "-5")

	st = stateResponse{}
	ts.do("POST", "/input", url.Values{"text": {"1 +"}}, &st)
	assert.Equal(t, st.Status, vcalc.StatusInvalid)
	assert.Nil(t, st.Value)

	st = stateResponse{}
	ts.do("POST", "/input", url.Values{"text": {"1e400"}}, &st)
	assert.Equal(t, st.Value, any("inf"))

	st = stateResponse{}
	ts.do("POST", "/clear", nil, &st)
	assert.Equal(t, st.Status, vcalc.StatusEmpty)
}

func TestServerErrors(t *testing.T) {
	ts := newTestServer(t)

	var er errorResponse
	assert.Equal(t, ts.do("POST", "/toggle", url.Values{"bit": {"40"}}, &er), http.StatusBadRequest)
	assert.That(t, strings.Contains(er.Error, "not visible"))

	assert.Equal(t, ts.do("POST", "/toggle", url.Values{"bit": {"x"}}, nil), http.StatusBadRequest)
	assert.Equal(t, ts.do("POST", "/width", url.Values{"width": {"16"}}, nil), http.StatusBadRequest)
	assert.Equal(t, ts.do("POST", "/random/int", url.Values{"low": {"5"}, "high": {"2"}}, nil), http.StatusBadRequest)
	assert.Equal(t, ts.do("GET", "/live?since=x", nil, nil), http.StatusBadRequest)

	assert.Equal(t, ts.do("GET", "/input", nil, nil), http.StatusMethodNotAllowed)
	assert.Equal(t, ts.do("GET", "/nope", nil, nil), http.StatusNotFound)
}

func TestServerWidthAndGrid(t *testing.T) {
	ts := newTestServer(t)

	var st stateResponse
	assert.Equal(t, ts.do("POST", "/width", url.Values{"width": {"64"}}, &st), http.StatusOK)
	assert.Equal(t, st.Width, bitfield.Width64)

	ts.do("POST", "/toggle", url.Values{"bit": {"40"}}, nil)

	var grid gridResponse
	assert.Equal(t, ts.do("GET", "/grid", nil, &grid), http.StatusOK)
	assert.Equal(t, grid.Width, bitfield.Width64)
	assert.Equal(t, len(grid.Rows), 8)
	assert.Equal(t, grid.Rows[2][7], Cell{Pos: 40, Set: true})
}

func TestServerRandom(t *testing.T) {
	ts := newTestServer(t)

	var st stateResponse
	assert.Equal(t, ts.do("POST", "/random/int", url.Values{"low": {"7"}, "high": {"7"}}, &st), http.StatusOK)
	assert.Equal(t, st.State, vcalc.State{Decimal: "7", Binary: "111", Hex: "7"})
	assert.Equal(t, st.Input, "7")

	st = stateResponse{}
	assert.Equal(t, ts.do("POST", "/random/real", url.Values{"low": {"0.5"}, "high": {"0.5"}}, &st), http.StatusOK)
	assert.Equal(t, st.State, vcalc.State{Decimal: "0.5"})

	// defaults come from the settings and follow a reload.
	ts.srv.Reload(Settings{Random: config.Random{IntLow: "3", IntHigh: "3", RealLow: "0", RealHigh: "1"}})
	st = stateResponse{}
	assert.Equal(t, ts.do("POST", "/random/int", nil, &st), http.StatusOK)
	assert.Equal(t, st.State.Decimal, "3")

	st = stateResponse{}
	assert.Equal(t, ts.do("POST", "/random/real", nil, &st), http.StatusOK)
	assert.Equal(t, st.Status, vcalc.StatusNonInteger)
}

func TestServerReload(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, ts.srv.Settings(), SettingsFrom(config.Default()))

	for i := range 5 {
		set := SettingsFrom(config.Default())
		set.ClearStaleBits = i%2 == 0
		ts.srv.Reload(set)
		assert.Equal(t, ts.srv.Settings(), set)
	}

	ts.srv.Reload(Settings{ClearStaleBits: true, Random: config.Default().Random})
	ts.do("POST", "/input", url.Values{"text": {"10"}}, nil)

	var st stateResponse
	ts.do("POST", "/input", url.Values{"text": {"-1"}}, &st)
	assert.Equal(t, st.Bits, uint64(0))
}

func TestServerLogZstd(t *testing.T) {
	ts := newTestServer(t)

	ts.do("POST", "/input", url.Values{"text": {"0x10"}}, nil)
	ts.do("POST", "/commit", url.Values{"text": {"0x10"}}, nil)

	req, err := http.NewRequest("GET", ts.hs.URL+"/log", nil)
	assert.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip, zstd;q=0.9")

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, resp.Header.Get("Content-Encoding"), "zstd")

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	dec, err := zstd.NewReader(nil)
	assert.NoError(t, err)
	defer dec.Close()

	data, err := dec.DecodeAll(body, nil)
	assert.NoError(t, err)

	var log []vcalc.Entry
	assert.NoError(t, json.Unmarshal(data, &log))
	assert.Equal(t, log, []vcalc.Entry{{Expression: "0x10", Decimal: "16", Binary: "10000", Hex: "10"}})

	resp, err = http.Get(ts.hs.URL + "/log?format=text")
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, string(body), "EXP = 0x10\nDEC = 16\nBIN = 10000\nHEX = 10\n")

	req, err = http.NewRequest("GET", ts.hs.URL+"/log?format=binary", nil)
	assert.NoError(t, err)
	req.Header.Set("Accept-Encoding", "zstd")
	resp, err = http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err = io.ReadAll(resp.Body)
	assert.NoError(t, err)

	data, err = dec.DecodeAll(body, nil)
	assert.NoError(t, err)
	log, err = vcalc.ReadLog(data)
	assert.NoError(t, err)
	assert.Equal(t, log, []vcalc.Entry{{Expression: "0x10", Decimal: "16", Binary: "10000", Hex: "10"}})

	assert.Equal(t, ts.do("GET", "/log?format=yaml", nil, nil), http.StatusBadRequest)
}

func TestServerLive(t *testing.T) {
	ts := newTestServer(t)

	ts.do("POST", "/input", url.Values{"text": {"1"}}, nil)
	ts.do("POST", "/input", url.Values{"text": {"2"}}, nil)

	var recs []feed.Record
	assert.Equal(t, ts.do("GET", "/live", nil, &recs), http.StatusOK)
	assert.Equal(t, len(recs), 2)
	assert.Equal(t, recs[1].Update.State.Decimal, "2")

	recs = nil
	assert.Equal(t, ts.do("GET", "/live?since=1", nil, &recs), http.StatusOK)
	assert.Equal(t, len(recs), 1)
	assert.Equal(t, recs[0].Seq, uint64(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ts.hs.URL+"/live?watch=1", nil)
	assert.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// the headers are flushed after the watcher is registered.
	ts.do("POST", "/input", url.Values{"text": {"3"}}, nil)

	br := bufio.NewReader(resp.Body)
	line, err := br.ReadString('\n')
	assert.NoError(t, err)
	assert.Equal(t, line, "id: 3\n")

	line, err = br.ReadString('\n')
	assert.NoError(t, err)
	data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
	assert.That(t, ok)

	var rec feed.Record
	assert.NoError(t, json.Unmarshal([]byte(data), &rec))
	assert.Equal(t, rec.Update.State.Decimal, "3")
	assert.Equal(t, rec.Update.Event, vcalc.EventInput)
}

func TestServerServe(t *testing.T) {
	srv, err := NewServer(config.Default(), nil)
	assert.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errch := make(chan error, 1)
	go func() { errch <- srv.Serve(ctx, lis, time.Second) }()

	resp, err := http.Get("http://" + lis.Addr().String() + "/state")
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusOK)

	cancel()
	assert.NoError(t, <-errch)
}

func TestServerRateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 2

	srv, err := NewServer(cfg, nil)
	assert.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	ts := &testServer{t: t, srv: srv, hs: hs}
	assert.Equal(t, ts.do("GET", "/state", nil, nil), http.StatusOK)
	assert.Equal(t, ts.do("GET", "/state", nil, nil), http.StatusOK)

	var er errorResponse
	assert.Equal(t, ts.do("GET", "/state", nil, &er), http.StatusTooManyRequests)
	assert.Equal(t, er.Error, "rate limit exceeded")
}
