package store

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/mermaid/pkg/mermaid"
)

func testRecord(t *testing.T, name, src string) *Record {
	t.Helper()
	res, err := mermaid.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return &Record{Name: name, Source: src, Result: res}
}

func TestMemoryStorePutAssignsID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	rec := testRecord(t, "first", "flowchart TD\nA --> B\n")
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if rec.ID == "" {
		t.Error("Put should assign an ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Put should assign CreatedAt")
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "first" || got.Source != rec.Source {
		t.Errorf("Get = %+v", got)
	}
	if got.Result.Grammar != mermaid.GrammarFlowchart {
		t.Errorf("grammar = %v", got.Result.Grammar)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, name := range []string{"one", "two", "three"} {
		if err := s.Put(ctx, testRecord(t, name, "flowchart TD\nA\n")); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 3 || all[0].Name != "three" || all[2].Name != "one" {
		names := make([]string, len(all))
		for i, r := range all {
			names[i] = r.Name
		}
		t.Errorf("List order = %v, want newest first", names)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(limited) != 2 || limited[0].Name != "three" {
		t.Errorf("List(2) = %d records", len(limited))
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := testRecord(t, "gone", "flowchart TD\nA\n")
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 0 {
		t.Errorf("List after delete = %d records", len(all))
	}
}
