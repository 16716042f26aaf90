package hub

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/songclash/songclash-backend/internal/catalog"
	"github.com/songclash/songclash-backend/internal/directory"
	"github.com/songclash/songclash-backend/internal/engine"
	"github.com/songclash/songclash-backend/internal/session"
	"github.com/songclash/songclash-backend/internal/statesync"
	"github.com/songclash/songclash-backend/internal/store"
)

func testDeps() session.Deps {
	mem := store.NewMemory()
	return session.Deps{
		Propagator: statesync.NewPropagator(mem, mem, zap.NewNop()),
		Catalog:    catalog.NewMemory(),
		Directory:  directory.NewMemory(),
		Log:        zap.NewNop(),
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, testDeps())
	reply := make(chan *session.Runtime, 1)

	h.Inbox() <- CreateSession{Code: "ZED123", HostID: "host", HostName: "Host", Config: engine.DefaultConfig(), Reply: reply}
	rt1 := <-reply

	h.Inbox() <- GetSession{Code: "ZED123", Reply: reply}
	rt2 := <-reply

	if rt1 == nil || rt2 == nil || rt1 != rt2 {
		t.Fatalf("expected same runtime pointer")
	}
}

func TestHub_Get_UnknownCodeIsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, testDeps())
	reply := make(chan *session.Runtime, 1)

	h.Inbox() <- GetSession{Code: "NOPE42", Reply: reply}
	if rt := <-reply; rt != nil {
		t.Fatalf("expected nil for unknown code, got %v", rt.Code())
	}
}

func TestHub_Ensure_CreatesOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, testDeps())
	reply := make(chan *session.Runtime, 1)

	h.Inbox() <- EnsureSession{Code: "ABC999", HostID: "host", HostName: "Host", Config: engine.DefaultConfig(), Reply: reply}
	rt1 := <-reply
	h.Inbox() <- EnsureSession{Code: "ABC999", HostID: "other", HostName: "Other", Config: engine.DefaultConfig(), Reply: reply}
	rt2 := <-reply

	if rt1 != rt2 {
		t.Fatalf("ensure created a second runtime for the same code")
	}
}

func TestHub_Remove(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx, testDeps())
	reply := make(chan *session.Runtime, 1)

	h.Inbox() <- CreateSession{Code: "GONE11", HostID: "host", HostName: "Host", Config: engine.DefaultConfig(), Reply: reply}
	<-reply

	h.Inbox() <- RemoveSession{Code: "GONE11"}
	h.Inbox() <- GetSession{Code: "GONE11", Reply: reply}
	if rt := <-reply; rt != nil {
		t.Fatalf("expected nil after remove")
	}
}
