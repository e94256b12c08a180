package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"fighterarena/internal/game"
)

func dialGame(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

type envelope struct {
	Type string `msgpack:"type"`
}

// readUntil reads messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var env envelope
		require.NoError(t, msgpack.Unmarshal(data, &env))
		if env.Type == msgType {
			require.NoError(t, msgpack.Unmarshal(data, out))
			return
		}
	}
}

func TestWebSocketSessionSubmitsOnTimeLimit(t *testing.T) {
	rules := game.DefaultRules()
	rules.SurvivalLimit = 200 * time.Millisecond
	env := newTestEnv(t, &stubRelay{}, rules)
	ts := httptest.NewServer(env.http)
	defer ts.Close()

	conn := dialGame(t, ts, "name=ace&address="+playerAddr)

	var welcome game.WelcomeMsg
	readUntil(t, conn, game.MsgTypeWelcome, &welcome)
	assert.NotEmpty(t, welcome.SessionID)
	assert.Equal(t, 60, welcome.TickRate)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"input","right":true,"aimX":1200,"aimY":400}`)))

	var snap game.Snapshot
	readUntil(t, conn, game.MsgTypeSnapshot, &snap)
	assert.Equal(t, "announcing", snap.WaveState)

	var over game.GameOverMsg
	readUntil(t, conn, game.MsgTypeGameOver, &over)
	assert.Equal(t, string(game.EndTimeExpired), over.Reason)
	assert.True(t, over.Submitted)
	assert.Equal(t, "succeeded", over.Blockchain)

	stats, ok, err := env.store.PlayerStats(context.Background(), "ace")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), stats.TotalGames)
}

func TestWebSocketRequiresAddress(t *testing.T) {
	env := newTestEnv(t, nil, game.DefaultRules())
	ts := httptest.NewServer(env.http)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?name=ace"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShutdownAbandonsLiveSessions(t *testing.T) {
	env := newTestEnv(t, nil, game.DefaultRules())
	ts := httptest.NewServer(env.http)
	defer ts.Close()

	conn := dialGame(t, ts, "address="+playerAddr)
	var welcome game.WelcomeMsg
	readUntil(t, conn, game.MsgTypeWelcome, &welcome)
	require.Eventually(t, func() bool { return env.server.SessionCount() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, env.server.Shutdown(ctx))

	recent, err := env.store.RecentGames(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent, "abandoned sessions are not submitted")
}
