package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/linkdex/internal/db/memory"
)

type state struct {
	Count int               `json:"count"`
	Tags  map[string]string `json:"tags"`
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := New(s, "t:", nil)

	if err := repo.Save(ctx, "patterns", state{Count: 3, Tags: map[string]string{"a": "b"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Get(ctx, "t:state:patterns"); err != nil {
		t.Fatalf("expected prefixed key: %v", err)
	}

	var got state
	ok, err := repo.Load(ctx, "patterns", &got)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Count != 3 || got.Tags["a"] != "b" {
		t.Fatalf("unexpected state %+v", got)
	}
}

func TestLoad_Missing(t *testing.T) {
	repo := New(memory.NewStore(), "", nil)

	var got state
	ok, err := repo.Load(context.Background(), "absent", &got)
	if err != nil || ok {
		t.Fatalf("expected miss without error, ok=%v err=%v", ok, err)
	}
}

func TestLoad_UnknownVersion(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := New(s, "t:", nil)

	if err := s.Set(ctx, "t:state:old", []byte(`{"version":99,"payload":{"count":1}}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "t:state:junk", []byte(`not json`)); err != nil {
		t.Fatal(err)
	}

	var got state
	for _, name := range []string{"old", "junk"} {
		ok, err := repo.Load(ctx, name, &got)
		if err != nil || ok {
			t.Fatalf("%s: expected ignored snapshot, ok=%v err=%v", name, ok, err)
		}
	}
}

func TestSaveWithTTL(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := New(s, "t:", nil)

	if err := repo.SaveWithTTL(ctx, "session", state{Count: 1}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	var got state
	if ok, _ := repo.Load(ctx, "session", &got); !ok || got.Count != 1 {
		t.Fatalf("expected stored session, got %+v", got)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := New(memory.NewStore(), "t:", nil)

	if err := repo.Save(ctx, "x", state{}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "x"); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	var got state
	if ok, _ := repo.Load(ctx, "x", &got); ok {
		t.Fatal("expected blob to be gone")
	}
}

type failingStore struct{ *memory.Store }

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("io") }

func TestLoad_StoreError(t *testing.T) {
	repo := New(failingStore{memory.NewStore()}, "t:", nil)

	var got state
	if _, err := repo.Load(context.Background(), "x", &got); err == nil {
		t.Fatal("expected store error")
	}
}
