package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/cli"
	"github.com/AdekunleBamz/TimeFi-Protocol/models"
)

const testToken = "jwt-wallet1"

type request struct {
	Method string
	Path   string
	Query  string
	Body   string
	Auth   string
}

// fakeServer отвечает заранее заданными конвертами и запоминает запросы.
type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []request
	routes   map[string]func(w http.ResponseWriter)
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{routes: map[string]func(w http.ResponseWriter){}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, request{
			Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery,
			Body: string(body), Auth: r.Header.Get("Authorization"),
		})
		h, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.Envelope{Err: 101, Message: "ERR_NOT_FOUND"})
			return
		}
		h(w)
	}))
	t.Cleanup(f.Close)

	f.ok("POST /api/login", models.LoginResponse{Token: testToken, Address: "wallet1", Kind: "wallet"})
	return f
}

func (f *fakeServer) ok(route string, v any) {
	raw, _ := json.Marshal(v)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Envelope{OK: raw})
	}
}

func (f *fakeServer) fail(route string, status int, code uint32, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(models.Envelope{Err: code, Message: msg})
	}
}

func (f *fakeServer) last() request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeServer) find(method, path string) (request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return request{}, false
}

type harness struct {
	t       *testing.T
	server  *fakeServer
	session string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VAULTCTL_SERVER", "")
	t.Setenv("VAULTCTL_PASSWORD", "")
	return &harness{
		t:       t,
		server:  newFakeServer(t),
		session: filepath.Join(home, "session.yaml"),
	}
}

// run выполняет vaultctl с аргументами и возвращает stdout, stderr и код.
func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	root := cli.NewRootCmd(cli.Options{Out: &out, Err: &errOut, Version: "test"})
	full := append([]string{"--server", h.server.URL, "--session", h.session}, args...)
	root.SetArgs(full)
	code := cli.Execute(context.Background(), root)
	return out.String(), errOut.String(), code
}

func (h *harness) login() {
	h.t.Helper()
	_, stderr, code := h.run("login", "wallet1", "--password", "secret")
	require.Equal(h.t, 0, code, stderr)
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("vault", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "вход не выполнен")

	h.login()
	req, ok := h.server.find(http.MethodPost, "/api/login")
	require.True(t, ok)
	assert.JSONEq(t, `{"username":"wallet1","password":"secret"}`, req.Body)

	s, err := cli.LoadSession(context.Background(), h.session)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, testToken, s.Token)
	assert.Equal(t, h.server.URL, s.Server)

	stdout, _, code := h.run("whoami", "-o", "json")
	require.Equal(t, 0, code)
	var who map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &who))
	assert.Equal(t, "wallet1", who["address"])

	_, _, code = h.run("logout")
	require.Equal(t, 0, code)
	_, err = os.Stat(h.session)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogin_PasswordFromEnv(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("login", "wallet1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "не указан пароль")

	t.Setenv("VAULTCTL_PASSWORD", "from-env")
	_, stderr, code = h.run("login", "wallet1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, h.last().Body, "from-env")
}

func (h *harness) last() request { return h.server.last() }

func TestRegister(t *testing.T) {
	h := newHarness(t)
	h.server.ok("POST /api/register", true)

	_, stderr, code := h.run("register", "bot", "--password", "secret", "--kind", "delegate")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{"username":"bot","password":"secret","kind":"delegate"}`, h.last().Body)
}

func TestVaultCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.server.ok("POST /api/vaults", uint64(3))
	h.server.ok("GET /api/vaults", []uint64{3})
	h.server.ok("GET /api/vaults/3", models.Vault{ID: 3, Owner: "wallet1", Amount: 995_000, UnlockHeight: 3601, Status: "locked"})
	h.server.ok("GET /api/vaults/3/time-remaining", uint64(3600))
	h.server.ok("GET /api/vaults/3/voting-power", uint64(995_000))
	h.server.ok("POST /api/vaults/3/withdraw", true)
	h.server.ok("POST /api/vaults/3/top-up", true)
	h.server.ok("POST /api/vaults/3/extend-lock", true)
	h.server.ok("PUT /api/vaults/3/beneficiary", true)
	h.server.ok("PUT /api/vaults/3/bot", true)
	h.server.ok("GET /api/vaults/3/emergency-payout", uint64(746_250))
	h.server.ok("POST /api/vaults/3/emergency-withdraw", uint64(746_250))

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantReq  request
		wantBody string
	}{
		{
			name:     "Создание",
			args:     []string{"vault", "create", "--amount", "1", "--lock", "1h"},
			wantOut:  "3\n",
			wantReq:  request{Method: http.MethodPost, Path: "/api/vaults"},
			wantBody: `{"amount":1000000,"lock_seconds":3600}`,
		},
		{
			name:    "Список",
			args:    []string{"vault", "list"},
			wantOut: "0.995000 STX",
			wantReq: request{Method: http.MethodGet, Path: "/api/vaults/3"},
		},
		{
			name:    "Просмотр",
			args:    []string{"vault", "show", "3"},
			wantOut: "Сила голоса:  995000",
			wantReq: request{Method: http.MethodGet, Path: "/api/vaults/3/voting-power"},
		},
		{
			name:    "Вывод",
			args:    []string{"vault", "withdraw", "3"},
			wantOut: "true\n",
			wantReq: request{Method: http.MethodPost, Path: "/api/vaults/3/withdraw"},
		},
		{
			name:    "Вывод в YAML",
			args:    []string{"-o", "yaml", "vault", "withdraw", "3"},
			wantOut: "true\n",
			wantReq: request{Method: http.MethodPost, Path: "/api/vaults/3/withdraw"},
		},
		{
			name:     "Пополнение",
			args:     []string{"vault", "top-up", "3", "--amount", "0.5"},
			wantReq:  request{Method: http.MethodPost, Path: "/api/vaults/3/top-up"},
			wantBody: `{"amount":500000}`,
		},
		{
			name:     "Продление",
			args:     []string{"vault", "extend", "3", "--by", "2h"},
			wantReq:  request{Method: http.MethodPost, Path: "/api/vaults/3/extend-lock"},
			wantBody: `{"additional":7200}`,
		},
		{
			name:     "Получатель",
			args:     []string{"vault", "beneficiary", "3", "wallet2"},
			wantReq:  request{Method: http.MethodPut, Path: "/api/vaults/3/beneficiary"},
			wantBody: `{"address":"wallet2"}`,
		},
		{
			name:     "Бот",
			args:     []string{"vault", "bot", "assign", "3", "bot"},
			wantReq:  request{Method: http.MethodPut, Path: "/api/vaults/3/bot"},
			wantBody: `{"address":"bot"}`,
		},
		{
			name:    "Досрочный вывод с подтверждением",
			args:    []string{"vault", "emergency-withdraw", "3", "--yes"},
			wantOut: "0.746250 STX\n",
			wantReq: request{Method: http.MethodPost, Path: "/api/vaults/3/emergency-withdraw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := h.run(tt.args...)
			require.Equal(t, 0, code, stderr)
			if tt.wantOut != "" {
				assert.Contains(t, stdout, tt.wantOut)
			}
			last := h.last()
			assert.Equal(t, tt.wantReq.Method, last.Method)
			assert.Equal(t, tt.wantReq.Path, last.Path)
			assert.Equal(t, "Bearer "+testToken, last.Auth)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, last.Body)
			}
		})
	}
}

func TestVaultEmergency_RequiresConfirmation(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.server.ok("GET /api/vaults/1/emergency-payout", uint64(746_250))

	_, stderr, code := h.run("vault", "emergency-withdraw", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "0.746250 STX")
	assert.Contains(t, stderr, "--yes")
	_, called := h.server.find(http.MethodPost, "/api/vaults/1/emergency-withdraw")
	assert.False(t, called)
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.server.fail("POST /api/vaults/1/withdraw", http.StatusConflict, 104, "ERR_LOCK_PERIOD")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "Ошибка реестра с именем кода", args: []string{"vault", "withdraw", "1"}, wantErr: "срок блокировки"},
		{name: "Неверный идентификатор", args: []string{"vault", "withdraw", "x"}, wantErr: "неверный идентификатор"},
		{name: "Неверная сумма", args: []string{"vault", "create", "--amount", "0.0000001", "--lock", "1h"}, wantErr: "неверная сумма"},
		{name: "Без срока", args: []string{"vault", "create", "--amount", "1"}, wantErr: "срок блокировки должен"},
		{name: "Неизвестный формат", args: []string{"-o", "xml", "protocol"}, wantErr: "неизвестный формат"},
		{name: "Часы без флагов", args: []string{"admin", "clock"}, wantErr: "ровно один"},
		{name: "Не найдено", args: []string{"proposal", "show", "9"}, wantErr: "не найдено"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := h.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestProposalAndAdminCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.server.ok("POST /api/proposals", uint64(1))
	h.server.ok("POST /api/proposals/1/votes", true)
	h.server.ok("POST /api/proposals/1/resolve", true)
	h.server.ok("GET /api/proposals", models.ProposalList{Count: 1, Proposals: []models.Proposal{
		{ID: 1, Title: "Снизить комиссию", VotesFor: 995_000, Resolved: true, Passed: true},
	}})
	h.server.ok("POST /api/admin/clock", models.ClockResponse{Height: 604_802})
	h.server.ok("PUT /api/admin/paused", true)

	_, stderr, code := h.run("proposal", "create", "--vault", "3", "--title", "Снизить комиссию", "--type", "fee")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{"vault_id":3,"title":"Снизить комиссию","description":"","type":"fee"}`, h.last().Body)

	_, stderr, code = h.run("proposal", "vote", "1", "--vault", "3", "--against")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{"vault_id":3,"support":false}`, h.last().Body)

	stdout, stderr, code := h.run("proposal", "resolve", "1")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "true\n", stdout)

	stdout, _, code = h.run("gov", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "принято")

	stdout, stderr, code = h.run("admin", "clock", "--advance", "604801")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "604802\n", stdout)
	assert.JSONEq(t, `{"advance":604801}`, h.last().Body)

	_, stderr, code = h.run("admin", "pause")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{"paused":true}`, h.last().Body)
}

func TestProtocolAndEvents(t *testing.T) {
	h := newHarness(t)
	h.server.ok("GET /api/protocol", models.ProtocolInfo{Height: 7, VaultCount: 2, TVL: 1_990_000, FeeBPS: 50, Admin: "deployer"})
	h.server.ok("GET /api/events", []models.Event{
		{Seq: 1, Tick: 1, Type: "create-vault", Caller: "wallet1", VaultID: 1, Amount: 1_000_000},
	})
	h.server.ok("GET /api/fees", models.FeeQuote{Amount: 1_000_000, Fee: 5_000, Net: 995_000})

	stdout, stderr, code := h.run("protocol")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "1.990000 STX")
	assert.Contains(t, stdout, "50 bps")

	stdout, _, code = h.run("-o", "yaml", "protocol")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "tvl: 1990000")

	stdout, _, code = h.run("events", "--after", "0", "--limit", "5")
	require.Equal(t, 0, code)
	assert.Equal(t, "#1 [1] create-vault wallet1 vault=1 amount=1.000000 STX\n", stdout)
	assert.Equal(t, "after=0&limit=5", h.last().Query)

	stdout, _, code = h.run("fees", "1")
	require.Equal(t, 0, code)
	assert.True(t, strings.Contains(stdout, "Комиссия: 0.005000 STX"))
	assert.Equal(t, "amount=1000000", h.last().Query)
}

func TestConfigFile(t *testing.T) {
	h := newHarness(t)
	h.server.ok("GET /api/protocol", models.ProtocolInfo{Height: 1})

	cfg := filepath.Join(t.TempDir(), "vaultctl.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output: json\n"), 0o600))

	var out, errOut bytes.Buffer
	root := cli.NewRootCmd(cli.Options{Out: &out, Err: &errOut})
	root.SetArgs([]string{"--config", cfg, "--server", h.server.URL, "--session", h.session, "protocol"})
	require.Equal(t, 0, cli.Execute(context.Background(), root), errOut.String())
	assert.Contains(t, out.String(), `"height": 1`)
}
