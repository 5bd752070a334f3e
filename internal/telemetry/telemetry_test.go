package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingWrapsAtCapacity(t *testing.T) {
	r := newRing(3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r.push(Sample{Timestamp: base.Add(time.Duration(i) * time.Second), BlockHeight: uint64(i)})
	}

	latest, ok := r.latest()
	require.True(t, ok)
	assert.Equal(t, uint64(4), latest.BlockHeight)
	assert.Equal(t, 3, r.size)
}

func TestRingSinceReturnsOldestFirst(t *testing.T) {
	r := newRing(10)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		r.push(Sample{Timestamp: base.Add(time.Duration(i) * time.Second), BlockHeight: uint64(i)})
	}

	got := r.since(base.Add(1500 * time.Millisecond))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].BlockHeight)
	assert.Equal(t, uint64(3), got[1].BlockHeight)
}

func TestPeerStateMarksUnreachableAfterThreshold(t *testing.T) {
	p := newPeerState(8)
	p.recordSample(Sample{Timestamp: time.Now().UTC(), BlockHeight: 10})

	snap := p.snapshot()
	assert.Equal(t, StatusReachable, snap.Status)
	require.NotNil(t, snap.Latest)
	assert.Equal(t, uint64(10), snap.Latest.BlockHeight)

	p.recordFailure(3)
	p.recordFailure(3)
	assert.Equal(t, StatusReachable, p.snapshot().Status, "below threshold stays reachable")

	p.recordFailure(3)
	snap = p.snapshot()
	assert.Equal(t, StatusUnreachable, snap.Status)
	require.NotNil(t, snap.Latest, "last known sample survives a failure streak")
	assert.Equal(t, uint64(10), snap.Latest.BlockHeight)
}

func TestAggregatorSnapshotAggregatesAcrossPeers(t *testing.T) {
	a := New(DefaultConfig(), nil, nil)
	a.mu.Lock()
	a.peers["peer-a"] = newPeerState(8)
	a.peers["peer-b"] = newPeerState(8)
	a.mu.Unlock()

	a.peers["peer-a"].recordSample(Sample{Timestamp: time.Now().UTC(), BlockHeight: 100})
	a.peers["peer-b"].recordSample(Sample{Timestamp: time.Now().UTC(), BlockHeight: 80})
	a.peers["peer-b"].recordFailure(1)

	fleet := a.Snapshot()
	require.Len(t, fleet.Peers, 2)
	assert.Equal(t, uint64(100), fleet.MaxBlockHeight)
	assert.Equal(t, uint64(80), fleet.MinBlockHeight)
	assert.Equal(t, 1, fleet.ReachableCount)
}

func TestAggregatorSamplesSinceUnknownPeer(t *testing.T) {
	a := New(DefaultConfig(), nil, nil)
	_, ok := a.SamplesSince("missing", time.Now())
	assert.False(t, ok)
}
