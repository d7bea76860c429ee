package snowflake

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name      string
		machineID int64
		expectErr bool
	}{
		{"valid min", 0, false},
		{"valid max", 1023, false},
		{"invalid negative", -1, true},
		{"invalid too large", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.machineID)
			if tt.expectErr {
				if !errors.Is(err, ErrInvalidMachineID) {
					t.Errorf("expected ErrInvalidMachineID for machineID=%d, got %v", tt.machineID, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for machineID=%d: %v", tt.machineID, err)
			}
			if gen.machineID != tt.machineID {
				t.Errorf("generator machineID = %d, want %d", gen.machineID, tt.machineID)
			}
		})
	}
}

func TestGenerateConcurrency(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	const workers, perWorker = 10, 500
	var (
		mu  sync.Mutex
		ids = make(map[int64]bool, workers*perWorker)
		wg  sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := gen.Generate()
				if err != nil {
					t.Errorf("Generate() error: %v", err)
					return
				}
				mu.Lock()
				if ids[id] {
					t.Errorf("duplicate ID generated: %d", id)
				}
				ids[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(ids) != workers*perWorker {
		t.Errorf("got %d unique IDs, want %d", len(ids), workers*perWorker)
	}
}

func TestGenerateSequenceOverflow(t *testing.T) {
	gen, _ := NewGenerator(7)

	var calls int64
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	// Frozen clock for one full sequence, then the next millisecond
	gen.now = func() int64 {
		calls++
		if calls <= maxSequence+2 {
			return fixed
		}
		return fixed + 1
	}

	var last int64
	for i := 0; i <= maxSequence+1; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error: %v", err)
		}
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
	}

	ts, machine, seq := ParseID(last)
	if ts != fixed+1 || machine != 7 || seq != 0 {
		t.Errorf("ParseID() = (%d, %d, %d), want (%d, 7, 0)", ts, machine, seq, fixed+1)
	}
}

func TestGenerateClockBackwards(t *testing.T) {
	gen, _ := NewGenerator(0)
	now := time.Now().UnixMilli()
	gen.now = func() int64 { return now }
	if _, err := gen.Generate(); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	gen.now = func() int64 { return now - 5 }
	if _, err := gen.Generate(); !errors.Is(err, ErrClockMovedBackwards) {
		t.Errorf("expected ErrClockMovedBackwards, got %v", err)
	}
}
