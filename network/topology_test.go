package network

import (
	"math/rand"
	"testing"

	"github.com/iotaledger/hive.go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func newTestTopology(ids ...DeviceID) *Topology {
	topology := NewTopology()
	for _, id := range ids {
		topology.AddDevice(id)
	}

	return topology
}

func TestTopology_Connect(t *testing.T) {
	topology := newTestTopology(0, 1, 2)

	require.NoError(t, topology.Connect(0, 1))
	require.NoError(t, topology.Connect(2, 0))

	neighbors, err := topology.Neighbors(0)
	require.NoError(t, err)
	assert.Equal(t, []DeviceID{1, 2}, neighbors)

	neighbors, err = topology.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []DeviceID{0}, neighbors)

	assert.True(t, topology.IsConnected(1, 0))
	assert.False(t, topology.IsConnected(1, 2))

	// connecting twice keeps a single edge
	require.NoError(t, topology.Connect(1, 0))
	neighbors, err = topology.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []DeviceID{0}, neighbors)
}

func TestTopology_ConnectUnknownDevice(t *testing.T) {
	topology := newTestTopology(0)

	err := topology.Connect(0, 7)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))

	neighbors, err := topology.Neighbors(0)
	require.NoError(t, err)
	assert.Empty(t, neighbors)

	_, err = topology.Neighbors(7)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))
}

func TestTopology_ConnectAll(t *testing.T) {
	topology := newTestTopology(0, 1, 2, 3)

	err := topology.ConnectAll([]DeviceID{0, 1}, []DeviceID{2})
	assert.True(t, xerrors.Is(err, ErrArityMismatch))

	err = topology.ConnectAll([]DeviceID{0, 1}, []DeviceID{2, 9})
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))
	assert.False(t, topology.IsConnected(0, 2), "nothing is connected if one of the ids is unknown")

	require.NoError(t, topology.ConnectAll([]DeviceID{0, 1, 2}, []DeviceID{1, 2, 3}))
	assert.True(t, topology.IsConnected(0, 1))
	assert.True(t, topology.IsConnected(1, 2))
	assert.True(t, topology.IsConnected(3, 2))
}

func TestTopology_Disconnect(t *testing.T) {
	topology := newTestTopology(0, 1, 2)
	require.NoError(t, topology.Connect(0, 1))

	err := topology.Disconnect(1, 2)
	assert.True(t, xerrors.Is(err, ErrNotConnected))
	assert.True(t, topology.IsConnected(0, 1), "topology is unchanged after a failed disconnect")

	err = topology.Disconnect(1, 5)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))

	require.NoError(t, topology.Disconnect(1, 0))
	assert.False(t, topology.IsConnected(0, 1))

	err = topology.Disconnect(0, 1)
	assert.True(t, xerrors.Is(err, ErrNotConnected))
}

func TestTopology_DisconnectAsymmetricEdge(t *testing.T) {
	topology := newTestTopology(0, 1)
	topology.adjacency[0][1] = struct{}{}

	err := topology.Disconnect(0, 1)
	assert.True(t, xerrors.Is(err, ErrNotConnected))
	assert.Contains(t, topology.adjacency[0], DeviceID(1), "asymmetric edges are not repaired")
}

func TestTopology_DisconnectAll(t *testing.T) {
	topology := newTestTopology(0, 1, 2, 3)
	require.NoError(t, topology.ConnectAll([]DeviceID{0, 1}, []DeviceID{1, 2}))

	err := topology.DisconnectAll([]DeviceID{0}, []DeviceID{1, 2})
	assert.True(t, xerrors.Is(err, ErrArityMismatch))

	err = topology.DisconnectAll([]DeviceID{0, 2}, []DeviceID{1, 3})
	assert.True(t, xerrors.Is(err, ErrNotConnected))
	assert.True(t, topology.IsConnected(0, 1), "edges removed before the failing pair are restored")

	require.NoError(t, topology.DisconnectAll([]DeviceID{0, 2}, []DeviceID{1, 1}))
	assert.False(t, topology.IsConnected(0, 1))
	assert.False(t, topology.IsConnected(1, 2))
}

func TestTopology_RemoveDevice(t *testing.T) {
	topology := newTestTopology(0, 1, 2)
	require.NoError(t, topology.ConnectAll([]DeviceID{0, 0, 1}, []DeviceID{1, 2, 2}))

	formerNeighbors, err := topology.RemoveDevice(0)
	require.NoError(t, err)
	assert.Equal(t, []DeviceID{1, 2}, formerNeighbors)
	assert.False(t, topology.Has(0))
	assert.Equal(t, 2, topology.Size())

	neighbors, err := topology.Neighbors(1)
	require.NoError(t, err)
	assert.Equal(t, []DeviceID{2}, neighbors)

	_, err = topology.RemoveDevice(0)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))
}

func TestTopology_Events(t *testing.T) {
	topology := newTestTopology(0, 1)

	var connected, disconnected [][2]DeviceID
	topology.Events.Connected.Attach(events.NewClosure(func(id1, id2 DeviceID) {
		connected = append(connected, [2]DeviceID{id1, id2})
	}))
	topology.Events.Disconnected.Attach(events.NewClosure(func(id1, id2 DeviceID) {
		disconnected = append(disconnected, [2]DeviceID{id1, id2})
	}))

	require.NoError(t, topology.Connect(0, 1))
	require.Error(t, topology.Disconnect(0, 0))
	require.NoError(t, topology.Disconnect(1, 0))

	assert.Equal(t, [][2]DeviceID{{0, 1}}, connected)
	assert.Equal(t, [][2]DeviceID{{1, 0}}, disconnected)
}

func TestTopology_Symmetry(t *testing.T) {
	const deviceCount = 10

	topology := NewTopology()
	for id := DeviceID(0); id < deviceCount; id++ {
		topology.AddDevice(id)
	}

	random := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		id1 := DeviceID(random.Intn(deviceCount))
		id2 := DeviceID(random.Intn(deviceCount))
		if id1 == id2 {
			continue
		}

		if random.Intn(2) == 0 {
			require.NoError(t, topology.Connect(id1, id2))
		} else if err := topology.Disconnect(id1, id2); err != nil {
			require.True(t, xerrors.Is(err, ErrNotConnected))
		}

		assertSymmetric(t, topology)
	}
}

func assertSymmetric(t *testing.T, topology *Topology) {
	for id, neighbors := range topology.adjacency {
		for neighborID := range neighbors {
			_, exists := topology.adjacency[neighborID][id]
			assert.Truef(t, exists, "%d -> %d has no reverse edge", id, neighborID)
		}
	}
}

func TestTopology_ForEachEdge(t *testing.T) {
	topology := newTestTopology(0, 1, 2)
	require.NoError(t, topology.ConnectAll([]DeviceID{2, 1}, []DeviceID{0, 2}))

	var edges [][2]DeviceID
	topology.ForEachEdge(func(id1, id2 DeviceID) {
		edges = append(edges, [2]DeviceID{id1, id2})
	})

	assert.Equal(t, [][2]DeviceID{{0, 2}, {1, 2}}, edges)
}
