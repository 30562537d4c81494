package seqno

import (
	"github.com/sirupsen/logrus"
	"gitlab.com/driftline/seqtrack/config"
)

// Tracker combines the local and global checkpoint trackers of one shard copy
// behind a single API. The shard owns exactly one Tracker, created when the
// shard opens and discarded when it closes; nothing in it outlives the shard
// copy.
type Tracker struct {
	shardID ShardID
	local   *LocalCheckpointTracker
	global  *GlobalCheckpointTracker
}

// NewTracker returns a tracker for the given shard. maxSeqNo and
// localCheckpoint are the values recovered from the last durable state, or
// NoOpsPerformed for an empty shard; globalCheckpoint is the last received
// global checkpoint, or UnassignedSeqNo if none was ever received.
func NewTracker(log logrus.FieldLogger, shardID ShardID, cfg config.Cfg, maxSeqNo, localCheckpoint, globalCheckpoint int64) (*Tracker, error) {
	log = log.WithField("shard", shardID.String())

	local, err := NewLocalCheckpointTracker(maxSeqNo, localCheckpoint, cfg.CheckpointChunkSize)
	if err != nil {
		return nil, err
	}

	global, err := NewGlobalCheckpointTracker(log, globalCheckpoint)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		shardID: shardID,
		local:   local,
		global:  global,
	}, nil
}

// ShardID returns the identity of the shard this tracker belongs to.
func (t *Tracker) ShardID() ShardID {
	return t.shardID
}

// GenerateSeqNo issues the next sequence number. The caller must pass the
// returned number to MarkSeqNoAsCompleted once the operation finished,
// whether or not it succeeded.
func (t *Tracker) GenerateSeqNo() int64 {
	return t.local.GenerateSeqNo()
}

// MarkSeqNoAsCompleted records the completion of the operation stamped with
// the given sequence number and advances the local checkpoint if possible.
func (t *Tracker) MarkSeqNoAsCompleted(seqNo int64) error {
	return t.local.MarkSeqNoAsCompleted(seqNo)
}

// MaxSeqNo returns the highest sequence number issued so far.
func (t *Tracker) MaxSeqNo() int64 {
	return t.local.MaxSeqNo()
}

// LocalCheckpoint returns the local checkpoint of this shard copy.
func (t *Tracker) LocalCheckpoint() int64 {
	return t.local.Checkpoint()
}

// GlobalCheckpoint returns the global checkpoint of the shard.
func (t *Tracker) GlobalCheckpoint() int64 {
	return t.global.Checkpoint()
}

// UpdateLocalCheckpointForShard records the local checkpoint reported by the
// copy with the given allocation ID.
func (t *Tracker) UpdateLocalCheckpointForShard(id AllocationID, checkpoint int64) {
	t.global.UpdateLocalCheckpoint(id, checkpoint)
}

// MarkAllocationIDAsInSync marks the copy with the given allocation ID as
// in-sync with the primary.
func (t *Tracker) MarkAllocationIDAsInSync(id AllocationID) error {
	return t.global.MarkAllocationIDAsInSync(id)
}

// UpdateGlobalCheckpointOnPrimary recomputes the global checkpoint from the
// currently known local checkpoints of the in-sync copies.
func (t *Tracker) UpdateGlobalCheckpointOnPrimary() CheckpointUpdate {
	return t.global.UpdateCheckpointOnPrimary()
}

// UpdateGlobalCheckpointOnReplica stores the global checkpoint pushed down by
// the primary.
func (t *Tracker) UpdateGlobalCheckpointOnReplica(checkpoint int64) {
	t.global.UpdateCheckpointOnReplica(checkpoint)
}

// UpdateAllocationIDsFromMaster reconciles the tracked shard copies with the
// active and initializing allocation IDs of the current cluster state.
func (t *Tracker) UpdateAllocationIDsFromMaster(active, initializing []AllocationID) {
	t.global.UpdateAllocationIDsFromMaster(active, initializing)
}

// Stats returns a point-in-time snapshot of the tracker state.
func (t *Tracker) Stats() Stats {
	return Stats{
		MaxSeqNo:         t.MaxSeqNo(),
		LocalCheckpoint:  t.LocalCheckpoint(),
		GlobalCheckpoint: t.GlobalCheckpoint(),
	}
}
