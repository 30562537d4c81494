// Package seqno tracks which operations on a replicated storage shard have
// been durably applied. Every operation on a shard copy is stamped with a
// strictly increasing sequence number. From the completion of those operations
// two watermarks are derived: the local checkpoint, below which every
// operation on this copy is known complete, and the global checkpoint, below
// which every in-sync copy of the shard has reached its own local checkpoint.
// The replication protocol uses these watermarks to truncate history, replay
// the right operations during recovery, and promote or remove copies without
// losing acknowledged writes.
package seqno

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// NoOpsPerformed is the sequence number value of a shard copy on which
	// no operations have been performed yet. It is also the checkpoint
	// value of such a copy.
	NoOpsPerformed = int64(-1)
	// UnassignedSeqNo marks a checkpoint that is not yet known, for
	// example on a freshly created replica before its first report.
	UnassignedSeqNo = int64(-2)
)

// AllocationID is an opaque token identifying one physical copy of a shard.
// It is handed out by the cluster master when the copy is allocated and is
// never interpreted here.
type AllocationID string

// NewAllocationID mints a fresh allocation ID.
func NewAllocationID() AllocationID {
	return AllocationID(uuid.New().String())
}

// ShardID identifies the shard a tracker belongs to. It is carried through to
// logs and metrics but never interpreted.
type ShardID struct {
	// Index is the name of the index the shard belongs to.
	Index string
	// Shard is the shard number within the index.
	Shard int
}

func (s ShardID) String() string {
	return fmt.Sprintf("%s/%d", s.Index, s.Shard)
}

// Stats is a point-in-time snapshot of the sequence number state of one shard
// copy.
type Stats struct {
	// MaxSeqNo is the highest sequence number issued so far.
	MaxSeqNo int64
	// LocalCheckpoint is the highest sequence number below which every
	// operation on this copy is known complete.
	LocalCheckpoint int64
	// GlobalCheckpoint is the highest sequence number below which every
	// in-sync copy has caught up.
	GlobalCheckpoint int64
}
