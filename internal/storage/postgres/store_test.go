package postgres

import (
	"context"
	"testing"
)

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), "", Options{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestPutEventsEmptyIsNoop(t *testing.T) {
	s := &Store{opts: Options{BatchSize: 10}}
	if err := s.PutEvents(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLastSeqRequiresPool(t *testing.T) {
	s := &Store{}
	if _, _, err := s.LastSeq(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty pool")
	}
}
