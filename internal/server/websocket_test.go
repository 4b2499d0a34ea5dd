package server

import (
	"encoding/json"
	"strings"
	"testing"

	"nhooyr.io/websocket"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/session"
)

func TestWSJoinAndReceiveState(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	sess, _ := env.mgr.Create("tictactoe", nil)
	sess.AddPlayer("alice")

	conn := wsConnect(t, env.ts, sess.Code, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")

	sp := readState(t, ctx, conn)
	if sp.SessionInfo.Code != sess.Code {
		t.Fatalf("expected session code %s, got %s", sess.Code, sp.SessionInfo.Code)
	}
	if sp.State != nil {
		t.Fatalf("expected no match view before start, got %v", sp.State)
	}
}

func TestWSJoinNewPlayer(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	sess, _ := env.mgr.Create("tictactoe", nil)
	// alice is not pre-added; the handler seats her
	conn := wsConnect(t, env.ts, sess.Code, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")

	readState(t, ctx, conn)
	if sess.GetPlayer("alice") == nil {
		t.Fatal("expected alice to be added to session")
	}
}

func TestWSJoinRejected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty player id", `{"type":"join","payload":{"playerId":""}}`, "invalid join payload"},
		{"double encoded payload", `{"type":"join","payload":"{\"playerId\":\"charlie\"}"}`, "invalid join payload"},
		{"command before join", `{"type":"command","payload":{"type":"MOVE"}}`, "first message must be a join"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			ctx, cancel := timeoutCtx(t)
			defer cancel()

			sess, _ := env.mgr.Create("tictactoe", nil)
			conn, _, err := websocket.Dial(ctx, wsURL(env.ts, sess.Code), nil)
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "")

			if err := conn.Write(ctx, websocket.MessageText, []byte(tt.raw)); err != nil {
				t.Fatalf("write: %v", err)
			}
			if got := readError(t, ctx, conn); !strings.Contains(got.Message, tt.want) {
				t.Fatalf("expected %q, got %q", tt.want, got.Message)
			}
		})
	}
}

func TestWSSessionNotFound(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(env.ts, "nonexistent"), nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp != nil && resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWSCommandGameNotStarted(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "tictactoe", "alice")
	conn := wsConnect(t, env.ts, code, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, conn)

	if err := sendWS(ctx, conn, "command", moveCommand(t, 0)); err != nil {
		t.Fatalf("send command: %v", err)
	}
	if got := readError(t, ctx, conn); got.Message != session.ErrNotStarted.Error() {
		t.Fatalf("expected %q, got %q", session.ErrNotStarted, got.Message)
	}
}

func TestWSCommandMissingType(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "tictactoe", "alice")
	conn := wsConnect(t, env.ts, code, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, conn)

	if err := sendWS(ctx, conn, "command", commandPayload{Payload: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("send command: %v", err)
	}
	if got := readError(t, ctx, conn); got.Code != engine.CodeInvalid {
		t.Fatalf("expected code %q, got %+v", engine.CodeInvalid, got)
	}
}

func TestWSStartByHost(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "tictactoe", "alice")
	aliceConn := wsConnect(t, env.ts, code, "alice")
	defer aliceConn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, aliceConn)

	bobConn := wsConnect(t, env.ts, code, "bob")
	defer bobConn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, aliceConn)
	readState(t, ctx, bobConn)

	// bob is not the host
	if err := sendWS(ctx, bobConn, "start", nil); err != nil {
		t.Fatalf("send start: %v", err)
	}
	if got := readError(t, ctx, bobConn); !strings.Contains(got.Message, "only the host") {
		t.Fatalf("expected host error, got %q", got.Message)
	}

	if err := sendWS(ctx, aliceConn, "start", nil); err != nil {
		t.Fatalf("send start: %v", err)
	}
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		sp := readState(t, ctx, conn)
		if sp.SessionInfo.Status != session.StatusPlaying {
			t.Fatalf("expected playing, got %s", sp.SessionInfo.Status)
		}
		if b := boardOf(t, sp); b.Players[0] != "alice" {
			t.Fatalf("expected alice to move first, got %v", b.Players)
		}
	}
}

func TestWSUnknownMessageType(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := timeoutCtx(t)
	defer cancel()

	code := createSessionViaAPI(t, env.ts, "tictactoe", "alice")
	conn := wsConnect(t, env.ts, code, "alice")
	defer conn.Close(websocket.StatusNormalClosure, "")
	readState(t, ctx, conn)

	if err := sendWS(ctx, conn, "dance", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := readError(t, ctx, conn); !strings.Contains(got.Message, "unknown message type") {
		t.Fatalf("expected unknown message type, got %q", got.Message)
	}
}

func TestRejectionPayload(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errorPayload
	}{
		{"rejection", engine.Reject(engine.CodeNotYourTurn, "not your turn"), errorPayload{Message: "not your turn", Code: engine.CodeNotYourTurn}},
		{"invariant", engine.Invariantf("reduce failed"), errorPayload{Message: "internal error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rejectionPayload(tt.err); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
