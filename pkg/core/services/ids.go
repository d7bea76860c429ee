package services

import (
	"sync/atomic"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// SequenceIDs is a process-local counter. Values restart after a restart,
// so durable stores should use snowflake ids instead.
type SequenceIDs struct {
	next atomic.Int64
}

func NewSequenceIDs(start int64) *SequenceIDs {
	s := &SequenceIDs{}
	s.next.Store(start)
	return s
}

func (s *SequenceIDs) NextID() (int64, error) {
	return s.next.Add(1) - 1, nil
}

var _ ports.IDGenerator = (*SequenceIDs)(nil)
