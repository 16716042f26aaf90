package directory

import (
	"context"
	"errors"
	"testing"
)

func TestMemory_RegisterAndResolve(t *testing.T) {
	d := NewMemory()
	d.Register("u1", "Alice")

	p, err := d.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.DisplayName != "Alice" || p.Online {
		t.Fatalf("profile = %+v", p)
	}
}

func TestMemory_RegisterKeepsNameOnEmptyUpdate(t *testing.T) {
	d := NewMemory()
	d.Register("u1", "Alice")
	d.Register("u1", "")

	p, _ := d.Resolve(context.Background(), "u1")
	if p.DisplayName != "Alice" {
		t.Fatalf("name = %q, want Alice", p.DisplayName)
	}
}

func TestMemory_SetOnline(t *testing.T) {
	d := NewMemory()
	d.Register("u1", "Alice")
	d.SetOnline("u1", true)

	p, _ := d.Resolve(context.Background(), "u1")
	if !p.Online {
		t.Fatal("expected online after connect")
	}

	d.SetOnline("u1", false)
	p, _ = d.Resolve(context.Background(), "u1")
	if p.Online {
		t.Fatal("expected offline after disconnect")
	}
}

func TestMemory_ResolveUnknown(t *testing.T) {
	d := NewMemory()
	if _, err := d.Resolve(context.Background(), "ghost"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("err = %v, want ErrUnknownUser", err)
	}
}
