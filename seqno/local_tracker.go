package seqno

import (
	"errors"
	"fmt"
	"sync"

	"gitlab.com/driftline/seqtrack/internal/bitset"
)

// ErrSeqNoNotIssued is returned when a sequence number above the highest
// issued one is marked as completed. Completing a number that was never
// handed out is a bug in the caller.
var ErrSeqNoNotIssued = errors.New("sequence number was never issued")

// LocalCheckpointTracker issues sequence numbers for one shard copy and
// tracks their completion. Operations may complete in any order; the tracker
// maintains the local checkpoint as the highest sequence number up to which
// completion is contiguous. Callers must mark every issued sequence number as
// completed eventually, whether or not the operation succeeded, or the
// checkpoint stalls at the resulting gap forever.
//
// Completions above the checkpoint are recorded in a sliding bitset offset
// from the checkpoint, so memory is bounded by the width of the outstanding
// window rather than the number of operations ever issued.
type LocalCheckpointTracker struct {
	mu         sync.Mutex
	maxSeqNo   int64
	checkpoint int64
	pending    *bitset.Sliding
}

// NewLocalCheckpointTracker returns a tracker seeded with the state recovered
// from the shard's last durable commit: the highest issued sequence number
// and the local checkpoint, both NoOpsPerformed for an empty shard.
// chunkSize is the size in bits of the completion bitset chunks.
func NewLocalCheckpointTracker(maxSeqNo, localCheckpoint int64, chunkSize int) (*LocalCheckpointTracker, error) {
	if localCheckpoint < 0 && localCheckpoint != NoOpsPerformed {
		return nil, fmt.Errorf("local checkpoint must be non-negative or %d, got %d", NoOpsPerformed, localCheckpoint)
	}
	if maxSeqNo < localCheckpoint {
		return nil, fmt.Errorf("max seq no %d must not be below local checkpoint %d", maxSeqNo, localCheckpoint)
	}

	pending := bitset.NewSliding(chunkSize)
	// Align the bitset window to the recovered checkpoint so that a copy
	// recovering at a high sequence number does not allocate chunks for
	// the entire retired range.
	pending.TrimBelow(localCheckpoint + 1)

	return &LocalCheckpointTracker{
		maxSeqNo:   maxSeqNo,
		checkpoint: localCheckpoint,
		pending:    pending,
	}, nil
}

// GenerateSeqNo issues the next sequence number. Sequence numbers are handed
// out in strictly increasing order without gaps and are never reused. The
// caller must eventually pass the returned number to MarkSeqNoAsCompleted.
func (t *LocalCheckpointTracker) GenerateSeqNo() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.maxSeqNo++
	return t.maxSeqNo
}

// MarkSeqNoAsCompleted records that the operation stamped with the given
// sequence number has finished, successfully or not. If the number directly
// follows the checkpoint, the checkpoint advances through it and through any
// already-completed numbers behind it. Marking a number at or below the
// checkpoint is a no-op, as is marking the same number twice. Marking a
// number that was never issued returns ErrSeqNoNotIssued.
func (t *LocalCheckpointTracker) MarkSeqNoAsCompleted(seqNo int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seqNo > t.maxSeqNo {
		return fmt.Errorf("%w: %d is above the highest issued %d", ErrSeqNoNotIssued, seqNo, t.maxSeqNo)
	}

	if seqNo <= t.checkpoint {
		return nil
	}

	t.pending.Set(seqNo)
	if seqNo == t.checkpoint+1 {
		t.advanceCheckpoint()
	}

	return nil
}

// Checkpoint returns the current local checkpoint.
func (t *LocalCheckpointTracker) Checkpoint() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.checkpoint
}

// MaxSeqNo returns the highest sequence number issued so far.
func (t *LocalCheckpointTracker) MaxSeqNo() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.maxSeqNo
}

// advanceCheckpoint moves the checkpoint forward while the next sequence
// number is already completed, then releases the bitset chunks that fell
// behind the checkpoint. Must be called with the lock held.
func (t *LocalCheckpointTracker) advanceCheckpoint() {
	for t.pending.Test(t.checkpoint + 1) {
		t.checkpoint++
	}

	t.pending.TrimBelow(t.checkpoint + 1)
}
