package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/game/dicethrone"
	"github.com/deathcats4/BoardGame-sub001/internal/game/tictactoe"
	"github.com/deathcats4/BoardGame-sub001/internal/session"
	"github.com/deathcats4/BoardGame-sub001/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *storage.Store
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := quietLogger()
	dt, err := dicethrone.New(dicethrone.Options{Logger: logger})
	if err != nil {
		t.Fatalf("dicethrone: %v", err)
	}
	reg := game.NewRegistry()
	reg.Register(tictactoe.TicTacToe{Logger: logger})
	reg.Register(dt)
	mgr := session.NewManager(reg, store, logger)

	webFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>test</body></html>")},
	}
	srv := New(reg, mgr, webFS, logger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

func createSessionViaAPI(t *testing.T, ts *httptest.Server, gameType, playerID string) string {
	t.Helper()
	body := fmt.Sprintf(`{"gameType":%q,"playerId":%q}`, gameType, playerID)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var result createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result.Code
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server, code string) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/sessions/" + code + "/ws"
}

// wsConnect dials a WebSocket, sends a join message, and returns the connection.
// The caller is responsible for closing the connection.
func wsConnect(t *testing.T, ts *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(ts, code), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	if err := sendWS(ctx, conn, "join", joinPayload{PlayerID: playerID}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	return conn
}

// sendWS marshals and sends a typed WebSocket message. Returns an error on failure.
func sendWS(ctx context.Context, conn *websocket.Conn, msgType string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Payload: p})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// readWS reads and unmarshals a single WebSocket message. Returns an error on failure.
func readWS(ctx context.Context, conn *websocket.Conn) (WSMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return WSMessage{}, err
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return WSMessage{}, err
	}
	return msg, nil
}

// readState reads a WebSocket message and expects it to be a "state" message.
func readState(t *testing.T, ctx context.Context, conn *websocket.Conn) statePayload {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if msg.Type != "state" {
		t.Fatalf("expected state message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var sp statePayload
	if err := json.Unmarshal(msg.Payload, &sp); err != nil {
		t.Fatalf("unmarshal state payload: %v", err)
	}
	return sp
}

// readError reads a WebSocket message and expects it to be an "error" message.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) errorPayload {
	t.Helper()
	msg, err := readWS(ctx, conn)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %q: %s", msg.Type, string(msg.Payload))
	}
	var ep errorPayload
	if err := json.Unmarshal(msg.Payload, &ep); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return ep
}

// --- Game helpers ---

// moveCommand builds a command payload for a tic-tac-toe move.
func moveCommand(t *testing.T, cell int) commandPayload {
	t.Helper()
	payload, err := json.Marshal(map[string]int{"cell": cell})
	if err != nil {
		t.Fatalf("marshal move payload: %v", err)
	}
	return commandPayload{Type: tictactoe.CommandMove, Payload: payload}
}

// wireView is the decoded shape of a runner view on the wire.
type wireView struct {
	Core json.RawMessage `json:"core"`
	Sys  game.SysState   `json:"sys"`
}

func viewOf(t *testing.T, sp statePayload) wireView {
	t.Helper()
	if sp.State == nil {
		t.Fatal("expected a match view, got none")
	}
	data, err := json.Marshal(sp.State)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	var v wireView
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	return v
}

// boardOf decodes a tic-tac-toe view.
func boardOf(t *testing.T, sp statePayload) tictactoe.Board {
	t.Helper()
	var b tictactoe.Board
	if err := json.Unmarshal(viewOf(t, sp).Core, &b); err != nil {
		t.Fatalf("unmarshal board: %v", err)
	}
	return b
}

func containsPlayer(players []string, id string) bool {
	return slices.Contains(players, id)
}
