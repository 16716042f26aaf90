package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/songclash/songclash-backend/internal/hub"
	"github.com/songclash/songclash-backend/internal/session"
	"github.com/songclash/songclash-backend/pkg/types"
)

// Handler upgrades a client onto a session. Query params: code (session),
// player_id, name.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		playerID := r.URL.Query().Get("player_id")
		if code == "" || playerID == "" {
			http.Error(w, "missing code or player_id", http.StatusBadRequest)
			return
		}
		name := r.URL.Query().Get("name")

		reply := make(chan *session.Runtime, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		rt := <-reply
		if rt == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		errs := make(chan string, 4)
		clientID := randID(6)

		rt.Inbox() <- session.Join{
			ClientID:    clientID,
			PlayerID:    playerID,
			DisplayName: name,
			Outbox:      out,
			Errors:      errs,
		}
		defer func() {
			rt.Inbox() <- session.Leave{ClientID: clientID, PlayerID: playerID}
		}()

		// Writer goroutine: snapshots and error frames share the socket.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				var msg types.ServerMessage
				select {
				case snap, ok := <-out:
					if !ok {
						return
					}
					st := snap.State
					msg = types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &st}
				case e := <-errs:
					msg = types.ServerMessage{Type: "Error", Error: e}
				case <-writeCtx.Done():
					return
				}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				log.Debug("socket read ended",
					zap.String("session", code), zap.Error(err))
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"bad json"}`))
				continue
			}

			cmd, ok := toCommand(cm, playerID)
			if !ok {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"unknown type"}`))
				continue
			}
			rt.Inbox() <- session.FromClient{ClientID: clientID, Cmd: cmd}
		}
	}
}

func toCommand(m types.ClientMessage, playerID string) (session.Command, bool) {
	cmd := session.Command{
		PlayerID:   playerID,
		Text:       m.Text,
		Confidence: m.Confidence,
		GuessID:    m.GuessID,
		Position:   m.Position,
	}
	switch m.Type {
	case "StartGame":
		cmd.Type = session.CmdStartGame
	case "PlayAudio":
		cmd.Type = session.CmdPlayAudio
	case "PauseAudio":
		cmd.Type = session.CmdPauseAudio
	case "StopAudio":
		cmd.Type = session.CmdStopAudio
	case "SubmitGuess":
		cmd.Type = session.CmdSubmitGuess
	case "CastVote":
		cmd.Type = session.CmdCastVote
	default:
		return session.Command{}, false
	}
	return cmd, true
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
