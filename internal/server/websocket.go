package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"github.com/deathcats4/BoardGame-sub001/internal/engine"
	"github.com/deathcats4/BoardGame-sub001/internal/game"
	"github.com/deathcats4/BoardGame-sub001/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	PlayerID string `json:"playerId"`
}

// commandPayload is a game command as sent by a client. The player id comes
// from the connection, never from the message.
type commandPayload struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type statePayload struct {
	State       any                 `json:"state"`
	Events      []game.Event        `json:"events,omitempty"`
	SessionInfo session.Info        `json:"sessionInfo"`
	Results     []game.PlayerResult `json:"results,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil || join.PlayerID == "" {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}

	playerID := join.PlayerID
	send := make(chan []byte, 64)
	log := s.log.WithFields(logrus.Fields{"session": code, "player": playerID})

	// Try to reconnect existing player, or add new one
	if !sess.ConnectPlayer(playerID, send) {
		if err := sess.AddPlayer(playerID); err != nil {
			sendWSError(ctx, conn, err.Error())
			return
		}
		sess.ConnectPlayer(playerID, send)
		if err := s.manager.SaveSessionConfig(sess); err != nil {
			log.WithError(err).Warn("save session config")
		}
	}

	// Notify all players about the roster change
	s.broadcastState(sess, nil)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(sess, playerID, send, msg)
	}

	// Player disconnected: keep the seat so they can reconnect
	log.Info("player disconnected")
}

func (s *Server) handleMessage(sess *session.Session, playerID string, send chan []byte, msg WSMessage) {
	switch msg.Type {
	case "command":
		var cp commandPayload
		if err := json.Unmarshal(msg.Payload, &cp); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: "invalid command payload"})
			return
		}
		cmd := game.Command{Type: cp.Type, PlayerID: playerID, Payload: cp.Payload}
		if err := cmd.CheckShape(); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: err.Error(), Code: engine.CodeInvalid})
			return
		}
		out, err := s.manager.Dispatch(sess, cmd)
		if err != nil {
			sendWSMsg(send, "error", errorPayload{Message: err.Error()})
			return
		}
		if !out.Result.Success {
			sendWSMsg(send, "error", rejectionPayload(out.Result.Err))
			if !isRejection(out.Result.Err) {
				s.log.WithError(out.Result.Err).WithFields(logrus.Fields{
					"session": sess.Code,
					"command": cmd.Type,
				}).Error("command failed")
			}
			return
		}
		s.broadcastState(sess, out.Result.Events)

	case "start":
		if sess.Info().HostID != playerID {
			sendWSMsg(send, "error", errorPayload{Message: "only the host can start"})
			return
		}
		if err := s.manager.Start(sess); err != nil {
			sendWSMsg(send, "error", errorPayload{Message: err.Error()})
			return
		}
		s.broadcastState(sess, nil)

	default:
		sendWSMsg(send, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
}

func rejectionPayload(err error) errorPayload {
	if rej, ok := engine.AsRejection(err); ok {
		return errorPayload{Message: rej.Message, Code: rej.Code}
	}
	if errors.Is(err, engine.ErrInvariant) {
		return errorPayload{Message: "internal error"}
	}
	return errorPayload{Message: err.Error()}
}

func isRejection(err error) bool {
	_, ok := engine.AsRejection(err)
	return ok
}

// broadcastState sends every connected player their own view of the match
// along with their projection of the events of the command that produced it.
func (s *Server) broadcastState(sess *session.Session, events []game.Event) {
	sess.RLock()
	info := sess.InfoLocked()
	match := sess.Match
	status := sess.Status
	views := make(map[string]statePayload, len(info.Players))
	for _, pid := range info.Players {
		sp := statePayload{SessionInfo: info}
		if match != nil && status != session.StatusWaiting {
			if len(events) > 0 {
				sp.Events = match.ViewEvents(events, pid)
			}
			sp.State = match.View(pid)
			if match.IsOver() {
				sp.Results = match.Results()
			}
		}
		views[pid] = sp
	}
	sess.RUnlock()

	for pid, sp := range views {
		p := sess.GetPlayer(pid)
		if p == nil {
			continue
		}
		sendWSMsg(p.Send, "state", sp)
	}
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	select {
	case send <- msg:
	default:
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	p, _ := json.Marshal(errorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
