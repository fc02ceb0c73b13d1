package cache

import (
	"context"
	"testing"
)

func TestMemoryGatewaySaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	key := HandKey("table-1")
	if ok, err := g.Exists(ctx, key); err != nil || ok {
		t.Fatalf("expected key to not exist yet, ok=%v err=%v", ok, err)
	}

	if err := g.Save(ctx, key, []byte("payload")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := g.Load(ctx, key)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected payload %q", data)
	}

	if err := g.Delete(ctx, key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := g.Load(ctx, key); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryGatewayListByPrefix(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	g.Save(ctx, "hand:a", []byte("1"))
	g.Save(ctx, "hand:b", []byte("2"))
	g.Save(ctx, "other:c", []byte("3"))

	keys, err := g.ListByPrefix(ctx, "hand:")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys with prefix hand:, got %d", len(keys))
	}
}
