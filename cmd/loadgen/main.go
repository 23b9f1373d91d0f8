// Command loadgen drives synthetic traffic against a running user service.
// Each session registers a fresh account, logs in, fetches the profile with
// the issued token, and samples one rejected login, checking every response
// against the wire contract as it goes. It exits nonzero if any response
// deviated, so it doubles as a smoke check in CI.
//
// Usage:
//
//	loadgen -url http://localhost:8080 -users 8 -duration 1m
//	loadgen -mode burst -burst-requests 100
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fernandofot/ecommerce-monitoring-app/pkg/api"
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:8080", "base URL of the user service")
		users         = flag.Int("users", 4, "number of concurrent workers")
		duration      = flag.Duration("duration", 30*time.Second, "how long to run in continuous mode")
		mode          = flag.String("mode", "continuous", `traffic shape: "continuous" or "burst"`)
		burstRequests = flag.Int("burst-requests", 50, "sessions per worker in burst mode")
		loginAxis     = flag.String("login-axis", "username", `login identifier the server authenticates on: "username" or "email"`)
	)
	flag.Parse()

	if *mode != "continuous" && *mode != "burst" {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
	if *users < 1 {
		fmt.Fprintln(os.Stderr, "users must be >= 1")
		os.Exit(2)
	}
	axis := api.LoginAxis(*loginAxis)
	if !axis.Valid() {
		fmt.Fprintf(os.Stderr, "unknown login axis %q\n", *loginAxis)
		os.Exit(2)
	}

	g := &generator{
		baseURL: strings.TrimRight(*baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		runID:   uuid.NewString(),
		axis:    axis,
		stats:   newStats(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *mode == "continuous" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	slog.Info("load generator starting",
		"url", g.baseURL,
		"run_id", g.runID,
		"users", *users,
		"mode", *mode,
		"login_axis", axis)

	var wg sync.WaitGroup
	for i := 1; i <= *users; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			g.run(ctx, worker, *mode, *burstRequests)
		}(i)
	}
	wg.Wait()

	if failures := g.stats.print(os.Stdout); failures > 0 {
		os.Exit(1)
	}
}

// generator holds the shared state of one load run. The run ID namespaces
// every generated identity so repeated runs against the same store never
// collide on the unique constraints.
type generator struct {
	baseURL string
	client  *http.Client
	runID   string
	axis    api.LoginAxis
	stats   *stats
}

// account is one synthetic identity walked through the session.
type account struct {
	email    string
	username string
	password string
}

// run executes sessions until the context expires or, in burst mode, the
// per-worker budget is spent.
func (g *generator) run(ctx context.Context, worker int, mode string, burstRequests int) {
	for seq := 1; ; seq++ {
		if ctx.Err() != nil {
			return
		}
		g.session(ctx, fmt.Sprintf("w%d-%d", worker, seq))
		if mode == "burst" && seq >= burstRequests {
			return
		}
	}
}

// session walks one account through the full lifecycle. Steps after a
// failed one are skipped; they could only fail for the same reason.
func (g *generator) session(ctx context.Context, tag string) {
	acct := account{
		username: fmt.Sprintf("load-%s-%s", g.runID[:8], tag),
		password: "load-" + g.runID,
	}
	acct.email = acct.username + "@loadtest.invalid"

	if !g.register(ctx, acct) {
		return
	}
	token, ok := g.login(ctx, acct)
	if !ok {
		return
	}
	g.profile(ctx, token, acct.username)
	g.badLogin(ctx, acct)
}

func (g *generator) register(ctx context.Context, acct account) bool {
	start := time.Now()
	status, body, err := g.postJSON(ctx, "/api/auth/register", api.RegisterRequest{
		Email:    acct.email,
		Username: acct.username,
		Password: acct.password,
	})
	// A request cut off by shutdown is not a verdict.
	if ctx.Err() != nil {
		return false
	}
	err = expect(err, status, http.StatusCreated, body, api.MessageUserRegistered)
	g.stats.record("register", time.Since(start), err)
	return err == nil
}

func (g *generator) login(ctx context.Context, acct account) (string, bool) {
	start := time.Now()
	status, body, err := g.postJSON(ctx, "/api/auth/login", g.loginRequest(acct, acct.password))
	if ctx.Err() != nil {
		return "", false
	}

	var resp api.LoginResponse
	switch {
	case err != nil || status != http.StatusOK:
		err = expect(err, status, http.StatusOK, body, "")
	case json.Unmarshal(body, &resp) != nil:
		err = fmt.Errorf("login response is not valid JSON: %s", truncate(body))
	case resp.Token == "":
		err = fmt.Errorf("login returned an empty token")
	case resp.Message != api.MessageLoginSuccessful:
		err = fmt.Errorf("login message %q, want %q", resp.Message, api.MessageLoginSuccessful)
	}
	g.stats.record("login", time.Since(start), err)
	return resp.Token, err == nil
}

func (g *generator) profile(ctx context.Context, token, username string) {
	start := time.Now()
	status, body, err := g.get(ctx, "/api/auth/profile", token)
	if ctx.Err() != nil {
		return
	}

	if err == nil {
		var profile api.ProfileResponse
		switch {
		case status != http.StatusOK:
			err = fmt.Errorf("status %d, want %d: %s", status, http.StatusOK, truncate(body))
		case json.Unmarshal(body, &profile) != nil:
			err = fmt.Errorf("profile response is not valid JSON: %s", truncate(body))
		case profile.Username != username:
			err = fmt.Errorf("profile username %q, want %q", profile.Username, username)
		}
	}
	g.stats.record("profile", time.Since(start), err)
}

// badLogin samples the rejection path: a wrong password must produce the
// generic 401 and nothing more specific.
func (g *generator) badLogin(ctx context.Context, acct account) {
	start := time.Now()
	status, body, err := g.postJSON(ctx, "/api/auth/login", g.loginRequest(acct, "definitely-not-the-password"))
	if ctx.Err() != nil {
		return
	}
	err = expect(err, status, http.StatusUnauthorized, body, api.MessageInvalidCredentials)
	g.stats.record("login_rejected", time.Since(start), err)
}

// loginRequest builds the login payload for the configured axis.
func (g *generator) loginRequest(acct account, password string) api.LoginRequest {
	if g.axis == api.LoginAxisEmail {
		return api.LoginRequest{Email: acct.email, Password: password}
	}
	return api.LoginRequest{Username: acct.username, Password: password}
}

func (g *generator) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req)
}

func (g *generator) get(ctx context.Context, path, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return g.do(req)
}

// do tags the request so server logs can be correlated with this run, then
// executes it and drains the body.
func (g *generator) do(req *http.Request) (int, []byte, error) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// expect folds transport errors, status mismatches, and message mismatches
// into a single verdict for the stats ledger.
func expect(err error, status, wantStatus int, body []byte, wantMessage string) error {
	if err != nil {
		return err
	}
	if status != wantStatus {
		return fmt.Errorf("status %d, want %d: %s", status, wantStatus, truncate(body))
	}
	if wantMessage != "" {
		var msg api.MessageResponse
		if json.Unmarshal(body, &msg) != nil || msg.Message != wantMessage {
			return fmt.Errorf("message %q, want %q", msg.Message, wantMessage)
		}
	}
	return nil
}

// truncate keeps unexpected response bodies readable in error messages.
func truncate(body []byte) string {
	const max = 120
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// stats aggregates per-operation latency and failures across workers.
type stats struct {
	mu  sync.Mutex
	ops map[string]*opStats
}

type opStats struct {
	count    int64
	failures int64
	total    time.Duration
	max      time.Duration
	firstErr string
}

func newStats() *stats {
	return &stats{ops: make(map[string]*opStats)}
}

func (s *stats) record(op string, d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.ops[op]
	if st == nil {
		st = &opStats{}
		s.ops[op] = st
	}
	st.count++
	st.total += d
	if d > st.max {
		st.max = d
	}
	if err != nil {
		st.failures++
		if st.firstErr == "" {
			st.firstErr = err.Error()
		}
	}
}

// print writes the summary table and returns the total failure count.
func (s *stats) print(w io.Writer) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.ops))
	for name := range s.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	var failures int64
	fmt.Fprintf(w, "\n%-16s %8s %8s %10s %10s\n", "operation", "count", "failed", "avg", "max")
	for _, name := range names {
		st := s.ops[name]
		avg := time.Duration(0)
		if st.count > 0 {
			avg = st.total / time.Duration(st.count)
		}
		fmt.Fprintf(w, "%-16s %8d %8d %10s %10s\n",
			name, st.count, st.failures, avg.Round(time.Millisecond), st.max.Round(time.Millisecond))
		failures += st.failures
	}
	for _, name := range names {
		if st := s.ops[name]; st.firstErr != "" {
			fmt.Fprintf(w, "first %s failure: %s\n", name, st.firstErr)
		}
	}
	return failures
}
