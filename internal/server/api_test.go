package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fighterarena/internal/chain"
	"fighterarena/internal/game"
	"fighterarena/internal/store"
	"fighterarena/internal/submit"
)

const (
	playerAddr = "0x1111111111111111111111111111111111111111"
	walletAddr = "0x2222222222222222222222222222222222222222"
)

type stubRelay struct {
	err error
}

func (r *stubRelay) SubmitScore(_ context.Context, update submit.ChainUpdate) (*submit.Receipt, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &submit.Receipt{TxHash: "0xfeed", BlockNumber: 7, GasUsed: 21000, Status: 1}, nil
}

func (r *stubRelay) AwaitTx(_ context.Context, hash string) (*submit.Receipt, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &submit.Receipt{TxHash: hash, BlockNumber: 7, GasUsed: 21000, Status: 1}, nil
}

func (r *stubRelay) WalletAddress() string { return walletAddr }

type stubChain struct{}

func (stubChain) Standing(_ context.Context, player string) (chain.Standing, error) {
	if !submit.ValidAddress(player) {
		return chain.Standing{}, submit.ErrInvalidInput
	}
	return chain.Standing{Player: player, Game: walletAddr, GameScore: big.NewInt(5), Transactions: big.NewInt(1), TotalScore: big.NewInt(9)}, nil
}

type testEnv struct {
	server *Server
	store  *store.Memory
	http   http.Handler
}

func newTestEnv(t *testing.T, relay submit.Relay, rules game.Rules) *testEnv {
	t.Helper()
	st := store.NewMemory()
	svc := submit.NewService(st, relay, submit.Options{
		ChainWait:   2 * time.Second,
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
		BackoffMax:  time.Millisecond,
	})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)

	var reader ChainReader
	if relay != nil {
		reader = stubChain{}
	}
	srv := NewServer(Options{Rules: rules, Store: st, Submitter: svc, Chain: reader})
	return &testEnv{server: srv, store: st, http: srv.Handler()}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.http.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubmitScoreEndpoint(t *testing.T) {
	env := newTestEnv(t, &stubRelay{}, game.DefaultRules())

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"get not allowed", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"preflight", http.MethodOptions, "", http.StatusOK},
		{"bad json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing address", http.MethodPost, `{"score":1,"transactions":1}`, http.StatusBadRequest},
		{"short address", http.MethodPost, `{"playerAddress":"0x1234","score":1,"transactions":1}`, http.StatusBadRequest},
		{"score as string", http.MethodPost, `{"playerAddress":"` + playerAddr + `","score":"1","transactions":1}`, http.StatusBadRequest},
		{"missing transactions", http.MethodPost, `{"playerAddress":"` + playerAddr + `","score":1}`, http.StatusBadRequest},
		{"ok", http.MethodPost, `{"playerAddress":"` + playerAddr + `","score":120,"transactions":3}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, "/api/submit-score", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	rec := env.do(http.MethodPost, "/api/submit-score", `{"playerAddress":"`+playerAddr+`","score":120,"transactions":3}`)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0xfeed", body["transactionHash"])
	assert.Equal(t, walletAddr, body["gameWalletAddress"])
	assert.NotNil(t, body["receipt"])
}

func TestSubmitScoreWithoutWallet(t *testing.T) {
	env := newTestEnv(t, nil, game.DefaultRules())

	rec := env.do(http.MethodPost, "/api/submit-score", `{"playerAddress":"`+playerAddr+`","score":1,"transactions":1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "game wallet not configured", decodeBody(t, rec)["error"])
}

func TestSubmitScoreRelayFailure(t *testing.T) {
	env := newTestEnv(t, &stubRelay{err: submit.ErrUnauthorized}, game.DefaultRules())

	rec := env.do(http.MethodPost, "/api/submit-score", `{"playerAddress":"`+playerAddr+`","score":1,"transactions":1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "authorization", body["errorClass"])
}

func TestScoresEndpointRecordsLocallyDespiteChainFailure(t *testing.T) {
	env := newTestEnv(t, &stubRelay{err: errors.New("AccessControl: missing role")}, game.DefaultRules())

	rec := env.do(http.MethodPost, "/api/scores",
		`{"playerAddress":"`+playerAddr+`","playerName":"ace","score":999,"transactions":4,"gameDuration":61}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["localSuccess"])
	assert.Equal(t, false, body["blockchainSuccess"])
	assert.Equal(t, "failed", body["blockchainStatus"])
	assert.NotEmpty(t, body["error"])

	stats, ok, err := env.store.PlayerStats(context.Background(), "ace")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(999), stats.BestScore)
}

func TestScoresEndpointValidation(t *testing.T) {
	env := newTestEnv(t, nil, game.DefaultRules())

	rec := env.do(http.MethodPost, "/api/scores", `{"playerAddress":"nope","score":1,"transactions":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/scores", `{"playerAddress":"`+playerAddr+`","score":1.5,"transactions":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/scores", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLeaderboardEndpoints(t *testing.T) {
	env := newTestEnv(t, nil, game.DefaultRules())
	for _, sub := range []string{
		`{"playerAddress":"` + playerAddr + `","playerName":"ace","score":999,"transactions":1}`,
		`{"playerAddress":"` + playerAddr + `","playerName":"ace","score":1,"transactions":1}`,
		`{"playerAddress":"` + walletAddr + `","playerName":"bee","score":300,"transactions":1}`,
	} {
		require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/scores", sub).Code)
	}

	rec := env.do(http.MethodGet, "/api/leaderboard?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var top struct {
		Players []store.PlayerStats `json:"players"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	require.Len(t, top.Players, 2)
	assert.Equal(t, "ace", top.Players[0].PlayerName)
	assert.Equal(t, int64(2), top.Players[0].TotalGames)
	assert.Equal(t, int64(1000), top.Players[0].TotalScore)
	assert.InDelta(t, 500.0, top.Players[0].AverageScore, 1e-9)

	rec = env.do(http.MethodGet, "/api/leaderboard/recent?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recent struct {
		Games []store.GameRecord `json:"games"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	require.Len(t, recent.Games, 2)
	assert.Equal(t, "bee", recent.Games[0].PlayerName)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/players/ace", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/players/nobody", "").Code)
}

func TestChainPlayerEndpoint(t *testing.T) {
	disabled := newTestEnv(t, nil, game.DefaultRules())
	assert.Equal(t, http.StatusServiceUnavailable, disabled.do(http.MethodGet, "/api/chain/players/"+playerAddr, "").Code)

	env := newTestEnv(t, &stubRelay{}, game.DefaultRules())
	rec := env.do(http.MethodGet, "/api/chain/players/"+playerAddr, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decodeBody(t, rec)["totalScore"])

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/chain/players/0x12", "").Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil, game.DefaultRules())

	rec := env.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["relayEnabled"])
}
