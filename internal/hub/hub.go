package hub

import (
	"context"

	"github.com/songclash/songclash-backend/internal/engine"
	"github.com/songclash/songclash-backend/internal/session"
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Code     string
	HostID   string
	HostName string
	Config   engine.Config
	Reply    chan *session.Runtime
}

type GetSession struct {
	Code  string
	Reply chan *session.Runtime
}

type EnsureSession struct {
	Code     string
	HostID   string
	HostName string
	Config   engine.Config // only used if creation happens
	Reply    chan *session.Runtime
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub is the registry actor of live session runtimes.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Runtime
	deps     session.Deps
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, deps session.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Runtime),
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if rt := h.sessions[msg.Code]; rt != nil {
					msg.Reply <- rt
					break
				}
				rt := session.New(h.ctx, msg.Code, msg.HostID, msg.HostName, msg.Config, h.deps)
				h.sessions[msg.Code] = rt
				msg.Reply <- rt

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // may be nil

			case EnsureSession:
				if rt := h.sessions[msg.Code]; rt != nil {
					msg.Reply <- rt
					break
				}
				rt := session.New(h.ctx, msg.Code, msg.HostID, msg.HostName, msg.Config, h.deps)
				h.sessions[msg.Code] = rt
				msg.Reply <- rt

			case RemoveSession:
				delete(h.sessions, msg.Code)

			case ShutdownHub:
				for _, rt := range h.sessions {
					rt.Inbox() <- session.Shutdown{}
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}
