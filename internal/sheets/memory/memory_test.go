package memory

import (
	"context"
	"errors"
	"testing"
)

func TestSheet_UpdateReplacesTab(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Update(ctx, "Sheet1!A1:B2", [][]any{{"a", "b"}, {"c", "d"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Clear(ctx, "Sheet1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if rows := s.Rows("Sheet1"); len(rows) != 0 {
		t.Fatalf("expected cleared tab, got %v", rows)
	}
	if err := s.Update(ctx, "Sheet1!A1:B1", [][]any{{"x", "y"}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rows := s.Rows("Sheet1")
	if len(rows) != 1 || rows[0][0] != "x" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if s.Clears != 1 || s.Updates != 2 {
		t.Fatalf("unexpected call counts: clears=%d updates=%d", s.Clears, s.Updates)
	}
}

func TestSheet_Err(t *testing.T) {
	s := New()
	s.Err = errors.New("offline")
	if err := s.Clear(context.Background(), "Sheet1"); err == nil {
		t.Fatal("expected error")
	}
}
