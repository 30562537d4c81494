package seqno

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	primary := newTestTracker(t, NoOpsPerformed, NoOpsPerformed, UnassignedSeqNo)

	for i := 0; i < 5; i++ {
		seqNo := primary.GenerateSeqNo()
		require.NoError(t, primary.MarkSeqNoAsCompleted(seqNo))
	}
	primary.GenerateSeqNo()

	id := NewAllocationID()
	primary.UpdateAllocationIDsFromMaster([]AllocationID{id}, nil)
	primary.UpdateLocalCheckpointForShard(id, primary.LocalCheckpoint())
	require.Equal(t, CheckpointAdvanced, primary.UpdateGlobalCheckpointOnPrimary())

	collector := NewCollector(func() []*Tracker { return []*Tracker{primary} })

	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(`
# HELP seqtrack_shard_global_checkpoint Highest sequence number below which all in-sync copies of the shard have caught up.
# TYPE seqtrack_shard_global_checkpoint gauge
seqtrack_shard_global_checkpoint{shard="accounts/2"} 4
# HELP seqtrack_shard_local_checkpoint Highest sequence number below which all operations on the shard copy are complete.
# TYPE seqtrack_shard_local_checkpoint gauge
seqtrack_shard_local_checkpoint{shard="accounts/2"} 4
# HELP seqtrack_shard_max_seq_no Highest sequence number issued on the shard copy.
# TYPE seqtrack_shard_max_seq_no gauge
seqtrack_shard_max_seq_no{shard="accounts/2"} 5
`)))
}

func TestCollector_emptyTrackerSet(t *testing.T) {
	collector := NewCollector(func() []*Tracker { return nil })

	count := testutil.CollectAndCount(collector)
	require.Zero(t, count)
}
