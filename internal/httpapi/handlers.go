package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/songclash/songclash-backend/internal/engine"
	"github.com/songclash/songclash-backend/internal/hub"
	"github.com/songclash/songclash-backend/internal/session"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createSessionRequest struct {
	HostID       string `json:"host_id"`
	HostName     string `json:"host_name"`
	GuessSeconds int    `json:"guess_seconds,omitempty"`
	VoteSeconds  int    `json:"vote_seconds,omitempty"`
	MaxPlays     int    `json:"max_plays,omitempty"`
	VotesNeeded  int    `json:"votes_needed,omitempty"`
	Rounds       int    `json:"rounds,omitempty"`
}

// CreateSession allocates a fresh code and boots the session runtime.
func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HostID == "" {
			http.Error(w, "host_id required", http.StatusBadRequest)
			return
		}

		cfg := engine.DefaultConfig()
		if req.GuessSeconds > 0 {
			cfg.GuessSeconds = req.GuessSeconds
		}
		if req.VoteSeconds > 0 {
			cfg.VoteSeconds = req.VoteSeconds
		}
		if req.MaxPlays > 0 {
			cfg.MaxPlays = req.MaxPlays
		}
		if req.VotesNeeded > 0 {
			cfg.VotesNeeded = req.VotesNeeded
		}
		if req.Rounds > 0 {
			cfg.Rounds = req.Rounds
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			reply := make(chan *session.Runtime, 1)
			h.Inbox() <- hub.GetSession{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
			log.Info("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *session.Runtime, 1)
		h.Inbox() <- hub.EnsureSession{
			Code:     code,
			HostID:   req.HostID,
			HostName: req.HostName,
			Config:   cfg,
			Reply:    reply,
		}
		if <-reply == nil {
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// JoinQR renders the join link for a session as a QR PNG.
func JoinQR(h *hub.Hub, joinBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		reply := make(chan *session.Runtime, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		if <-reply == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		png, err := qrcode.Encode(joinBaseURL+"/join?code="+code, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "failed to render qr", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
