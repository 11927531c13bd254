package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"flexPool/internal/fixedpoint"
	"flexPool/internal/model"
)

func TestJsonlStorageAppendsAndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	first := []model.EventRecord{
		{ID: "a", Pool: "p", Seq: 1, EventName: model.EventRegistrySynced, Decoded: model.RegistrySyncedEvent{
			XProtocolFees:    fixedpoint.Zero,
			YProtocolFees:    fixedpoint.MustParse("0.125"),
			FeeProtocolShare: fixedpoint.MustParse("0.25"),
			NextSyncTime:     5986,
		}},
	}
	second := []model.EventRecord{
		{ID: "b", Pool: "p", Seq: 2, EventName: model.EventLiquidityRemoved, Decoded: model.LiquidityRemovedEvent{
			LPBurned: fixedpoint.One,
			XAmount:  fixedpoint.MustParse("1.1"),
			YAmount:  fixedpoint.MustParse("0.909090909090909091"),
		}},
	}
	if err := s.PutEvents(ctx, first); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.PutEvents(ctx, nil); err != nil {
		t.Fatalf("empty put failed: %v", err)
	}
	if err := s.PutEvents(ctx, second); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := s.ReadEvents()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].Seq != 2 {
		t.Fatalf("unexpected records %+v", got)
	}

	var synced map[string]interface{}
	if err := json.Unmarshal(got[0].Decoded, &synced); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if synced["y_protocol_fees"] != "0.125" {
		t.Fatalf("unexpected y_protocol_fees %v", synced["y_protocol_fees"])
	}
	if synced["next_sync_time"] != float64(5986) {
		t.Fatalf("unexpected next_sync_time %v", synced["next_sync_time"])
	}
}

func TestJsonlStorageReadMissingFile(t *testing.T) {
	s := NewJsonlStorage(filepath.Join(t.TempDir(), "none.jsonl"))
	if _, err := s.ReadEvents(); err == nil {
		t.Fatalf("expected error")
	}
}
