// Package snowflake generates Twitter-style 64-bit ids:
//
//	1 bit  | 41 bit            | 10 bit  | 12 bit
//	unused | ms since epoch    | machine | sequence
//
// Ids are time ordered and unique per machine without coordination.
package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// 2024-01-01 00:00:00 UTC
	epoch int64 = 1704067200000

	machineBits  = 10
	sequenceBits = 12

	maxMachineID = (1 << machineBits) - 1
	maxSequence  = (1 << sequenceBits) - 1

	machineShift   = sequenceBits
	timestampShift = sequenceBits + machineBits
)

var (
	ErrInvalidMachineID    = errors.New("machine ID must be between 0 and 1023")
	ErrClockMovedBackwards = errors.New("clock moved backwards, refusing to generate ID")
)

type Generator struct {
	mu            sync.Mutex
	machineID     int64
	sequence      int64
	lastTimestamp int64
	now           func() int64
}

func NewGenerator(machineID int64) (*Generator, error) {
	if machineID < 0 || machineID > maxMachineID {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMachineID, machineID)
	}
	return &Generator{
		machineID: machineID,
		now:       func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Generate is safe for concurrent use. When the sequence for the current
// millisecond is used up it waits for the next one.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.now()
	if timestamp < g.lastTimestamp {
		return 0, fmt.Errorf("%w: last=%d, current=%d", ErrClockMovedBackwards, g.lastTimestamp, timestamp)
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			timestamp = g.waitNextMillisecond(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = timestamp

	id := ((timestamp - epoch) << timestampShift) |
		(g.machineID << machineShift) |
		g.sequence
	return id, nil
}

func (g *Generator) waitNextMillisecond(last int64) int64 {
	timestamp := g.now()
	for timestamp <= last {
		time.Sleep(10 * time.Microsecond)
		timestamp = g.now()
	}
	return timestamp
}

// ParseID splits an id into its unix millisecond timestamp, machine and sequence.
func ParseID(id int64) (timestamp, machineID, sequence int64) {
	sequence = id & maxSequence
	machineID = (id >> machineShift) & maxMachineID
	timestamp = (id >> timestampShift) + epoch
	return
}
