package seqno

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrAllocationUnknown is returned when an allocation ID that was never
// announced by the master is promoted to in-sync.
var ErrAllocationUnknown = errors.New("allocation id is not tracked")

// CheckpointUpdate is the outcome of a global checkpoint recomputation on the
// primary.
type CheckpointUpdate int

const (
	// CheckpointUnchanged means the computed minimum did not exceed the
	// current global checkpoint, or no copy is in-sync yet.
	CheckpointUnchanged CheckpointUpdate = iota
	// CheckpointAdvanced means the global checkpoint moved forward.
	CheckpointAdvanced
	// CheckpointBlocked means recomputation could not proceed because an
	// in-sync copy has not reported its local checkpoint yet. The copy is
	// deliberately not skipped: advancing past data it may not have
	// acknowledged would break the durability guarantee. Callers retry on
	// the next report cycle.
	CheckpointBlocked
)

func (u CheckpointUpdate) String() string {
	switch u {
	case CheckpointUnchanged:
		return "unchanged"
	case CheckpointAdvanced:
		return "advanced"
	case CheckpointBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("invalid update outcome %d", int(u))
	}
}

type allocationState int

const (
	// allocationTracked is a copy known to exist, for example one still
	// initializing, whose checkpoint does not count toward the global
	// checkpoint.
	allocationTracked allocationState = iota
	// allocationInSync is a copy whose checkpoint counts toward the
	// global checkpoint. Once in-sync, a copy is either kept in-sync or
	// removed entirely; there is no demotion back to tracked.
	allocationInSync
)

// allocation is the tracking state of one shard copy.
type allocation struct {
	state      allocationState
	checkpoint int64
}

// GlobalCheckpointTracker runs on the primary copy of a shard. It records the
// last reported local checkpoint of every known shard copy, maintains which
// copies are in-sync, and derives the global checkpoint as the minimum local
// checkpoint among the in-sync copies. The global checkpoint never regresses,
// even when the in-sync set later shrinks or loses its highest contributors:
// a durability promise that was already handed out cannot be taken back.
type GlobalCheckpointTracker struct {
	log logrus.FieldLogger

	mu          sync.Mutex
	allocations map[AllocationID]*allocation
	checkpoint  int64
}

// NewGlobalCheckpointTracker returns a tracker seeded with the global
// checkpoint recovered from the shard's last durable commit, or
// UnassignedSeqNo when none was ever received.
func NewGlobalCheckpointTracker(log logrus.FieldLogger, globalCheckpoint int64) (*GlobalCheckpointTracker, error) {
	if globalCheckpoint < 0 && globalCheckpoint != NoOpsPerformed && globalCheckpoint != UnassignedSeqNo {
		return nil, fmt.Errorf("global checkpoint must be non-negative, %d or %d, got %d",
			NoOpsPerformed, UnassignedSeqNo, globalCheckpoint)
	}

	return &GlobalCheckpointTracker{
		log:         log.WithField("component", "seqno.GlobalCheckpointTracker"),
		allocations: make(map[AllocationID]*allocation),
		checkpoint:  globalCheckpoint,
	}, nil
}

// UpdateLocalCheckpoint records the latest known local checkpoint of the copy
// with the given allocation ID. Reports below the recorded value are stale
// leftovers of message reordering and are silently discarded; the per-copy
// value only ever moves forward once assigned. An ID the master never
// announced is recorded as tracked but not in-sync, so it cannot influence
// the global checkpoint until promoted.
func (t *GlobalCheckpointTracker) UpdateLocalCheckpoint(id AllocationID, checkpoint int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.allocations[id]
	if !ok {
		t.allocations[id] = &allocation{state: allocationTracked, checkpoint: checkpoint}
		t.log.WithFields(logrus.Fields{
			"allocation_id":    id,
			"local_checkpoint": checkpoint,
		}).Debug("report from unannounced allocation, tracking without in-sync status")
		return
	}

	if a.checkpoint == UnassignedSeqNo || checkpoint > a.checkpoint {
		a.checkpoint = checkpoint
	}
}

// MarkAllocationIDAsInSync promotes a tracked copy into the in-sync set,
// making its local checkpoint count toward the global checkpoint. The ID must
// have been announced by the master before, either as active or as
// initializing; promoting an unknown ID returns ErrAllocationUnknown.
// Promotion does not recompute the global checkpoint.
func (t *GlobalCheckpointTracker) MarkAllocationIDAsInSync(id AllocationID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.allocations[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrAllocationUnknown, id)
	}

	if a.state != allocationInSync {
		a.state = allocationInSync
		t.log.WithField("allocation_id", id).Info("allocation marked as in-sync")
	}

	return nil
}

// UpdateAllocationIDsFromMaster reconciles the tracked copies with the
// cluster state. Copies present in neither set have left the cluster and are
// dropped together with their contribution. Newly seen initializing IDs are
// tracked with an unassigned checkpoint until promoted. Active IDs are put
// in-sync immediately: an ID the master lists as active belongs to an
// established copy that is assumed caught up, and an unknown active ID still
// cannot advance the checkpoint before its first report since it starts out
// unassigned.
func (t *GlobalCheckpointTracker) UpdateAllocationIDsFromMaster(active, initializing []AllocationID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	known := make(map[AllocationID]struct{}, len(active)+len(initializing))
	for _, id := range active {
		known[id] = struct{}{}
	}
	for _, id := range initializing {
		known[id] = struct{}{}
	}

	for id := range t.allocations {
		if _, ok := known[id]; !ok {
			delete(t.allocations, id)
			t.log.WithField("allocation_id", id).Info("allocation removed from cluster, dropping its contribution")
		}
	}

	for _, id := range active {
		a, ok := t.allocations[id]
		if !ok {
			t.allocations[id] = &allocation{state: allocationInSync, checkpoint: UnassignedSeqNo}
			continue
		}
		// A copy we already tracked became active; it keeps its
		// reported checkpoint.
		a.state = allocationInSync
	}

	for _, id := range initializing {
		if _, ok := t.allocations[id]; !ok {
			t.allocations[id] = &allocation{state: allocationTracked, checkpoint: UnassignedSeqNo}
		}
	}
}

// UpdateCheckpointOnPrimary recomputes the global checkpoint as the minimum
// local checkpoint of the in-sync copies. When an in-sync copy has not
// reported yet the computation is blocked, not resolved by skipping the copy.
// The checkpoint only ever moves forward; a minimum at or below the current
// value leaves it unchanged.
func (t *GlobalCheckpointTracker) UpdateCheckpointOnPrimary() CheckpointUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	inSync := 0
	var min int64
	for id, a := range t.allocations {
		if a.state != allocationInSync {
			continue
		}

		if a.checkpoint == UnassignedSeqNo {
			t.log.WithField("allocation_id", id).Debug("global checkpoint blocked on unreported in-sync allocation")
			return CheckpointBlocked
		}

		if inSync == 0 || a.checkpoint < min {
			min = a.checkpoint
		}
		inSync++
	}

	if inSync == 0 || min <= t.checkpoint {
		return CheckpointUnchanged
	}

	t.checkpoint = min
	t.log.WithField("global_checkpoint", min).Debug("global checkpoint advanced")

	return CheckpointAdvanced
}

// UpdateCheckpointOnReplica stores the authoritative global checkpoint pushed
// down by the primary. Replicas never compute their own global checkpoint. A
// value below the stored one indicates a stale or reordered message and is
// ignored.
func (t *GlobalCheckpointTracker) UpdateCheckpointOnReplica(checkpoint int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if checkpoint > t.checkpoint {
		t.checkpoint = checkpoint
	}
}

// Checkpoint returns the current global checkpoint.
func (t *GlobalCheckpointTracker) Checkpoint() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.checkpoint
}
