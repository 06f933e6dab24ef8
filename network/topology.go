package network

import (
	"sort"
	"sync"

	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/types"
	"golang.org/x/xerrors"
)

// region Topology /////////////////////////////////////////////////////////////////////////////////////////////////////

// Topology stores which devices can reach each other. All edges are symmetric.
type Topology struct {
	Events *TopologyEvents

	adjacency map[DeviceID]map[DeviceID]types.Empty
	mutex     sync.RWMutex
}

func NewTopology() (topology *Topology) {
	return &Topology{
		Events: &TopologyEvents{
			Connected:    events.NewEvent(deviceIDPairEventCaller),
			Disconnected: events.NewEvent(deviceIDPairEventCaller),
		},

		adjacency: make(map[DeviceID]map[DeviceID]types.Empty),
	}
}

// AddDevice creates an empty neighbor set for the given id. It returns false if the id already had one.
func (t *Topology) AddDevice(id DeviceID) (added bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.adjacency[id]; exists {
		return false
	}
	t.adjacency[id] = make(map[DeviceID]types.Empty)

	return true
}

// RemoveDevice deletes the neighbor set of the given id and strips the id from all of its former neighbors.
func (t *Topology) RemoveDevice(id DeviceID) (formerNeighbors []DeviceID, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	neighbors, exists := t.adjacency[id]
	if !exists {
		return nil, xerrors.Errorf("failed to remove device %d: %w", id, ErrUnknownDevice)
	}
	delete(t.adjacency, id)

	for neighborID := range neighbors {
		delete(t.adjacency[neighborID], id)
	}

	return sortedIDs(neighbors), nil
}

func (t *Topology) Connect(id1, id2 DeviceID) (err error) {
	t.mutex.Lock()
	if err = t.requireDevices(id1, id2); err != nil {
		t.mutex.Unlock()
		return xerrors.Errorf("failed to connect %d <-> %d: %w", id1, id2, err)
	}
	t.connect(id1, id2)
	t.mutex.Unlock()

	t.Events.Connected.Trigger(id1, id2)

	return nil
}

// ConnectAll connects ids1[i] with ids2[i] for every i. Nothing is connected if any of the ids is unknown.
func (t *Topology) ConnectAll(ids1, ids2 []DeviceID) (err error) {
	if len(ids1) != len(ids2) {
		return xerrors.Errorf("failed to connect %d with %d devices: %w", len(ids1), len(ids2), ErrArityMismatch)
	}

	t.mutex.Lock()
	for i := range ids1 {
		if err = t.requireDevices(ids1[i], ids2[i]); err != nil {
			t.mutex.Unlock()
			return xerrors.Errorf("failed to connect %d <-> %d: %w", ids1[i], ids2[i], err)
		}
	}
	for i := range ids1 {
		t.connect(ids1[i], ids2[i])
	}
	t.mutex.Unlock()

	for i := range ids1 {
		t.Events.Connected.Trigger(ids1[i], ids2[i])
	}

	return nil
}

// Disconnect removes the edge between the two devices. The edge has to exist in both directions.
func (t *Topology) Disconnect(id1, id2 DeviceID) (err error) {
	t.mutex.Lock()
	if err = t.disconnect(id1, id2); err != nil {
		t.mutex.Unlock()
		return err
	}
	t.mutex.Unlock()

	t.Events.Disconnected.Trigger(id1, id2)

	return nil
}

// DisconnectAll disconnects ids1[i] from ids2[i] for every i. If one of the pairs is not connected, the edges
// removed before it are restored and the topology is left unchanged.
func (t *Topology) DisconnectAll(ids1, ids2 []DeviceID) (err error) {
	if len(ids1) != len(ids2) {
		return xerrors.Errorf("failed to disconnect %d from %d devices: %w", len(ids1), len(ids2), ErrArityMismatch)
	}

	t.mutex.Lock()
	for i := range ids1 {
		if err = t.disconnect(ids1[i], ids2[i]); err != nil {
			for j := i - 1; j >= 0; j-- {
				t.connect(ids1[j], ids2[j])
			}
			t.mutex.Unlock()

			return err
		}
	}
	t.mutex.Unlock()

	for i := range ids1 {
		t.Events.Disconnected.Trigger(ids1[i], ids2[i])
	}

	return nil
}

// Neighbors returns the neighbors of the given device in ascending order.
func (t *Topology) Neighbors(id DeviceID) (neighbors []DeviceID, err error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	neighborSet, exists := t.adjacency[id]
	if !exists {
		return nil, xerrors.Errorf("failed to retrieve neighbors of %d: %w", id, ErrUnknownDevice)
	}

	return sortedIDs(neighborSet), nil
}

func (t *Topology) IsConnected(id1, id2 DeviceID) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.isConnected(id1, id2)
}

func (t *Topology) Has(id DeviceID) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	_, exists := t.adjacency[id]
	return exists
}

func (t *Topology) Size() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return len(t.adjacency)
}

// ForEachEdge calls the consumer once for every undirected edge, with the smaller id first.
func (t *Topology) ForEachEdge(consumer func(id1, id2 DeviceID)) {
	t.mutex.RLock()
	ids := make([]DeviceID, 0, len(t.adjacency))
	for id := range t.adjacency {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	edges := make([][2]DeviceID, 0)
	for _, id := range ids {
		for _, neighborID := range sortedIDs(t.adjacency[id]) {
			if id < neighborID {
				edges = append(edges, [2]DeviceID{id, neighborID})
			}
		}
	}
	t.mutex.RUnlock()

	for _, edge := range edges {
		consumer(edge[0], edge[1])
	}
}

func (t *Topology) requireDevices(ids ...DeviceID) error {
	for _, id := range ids {
		if _, exists := t.adjacency[id]; !exists {
			return xerrors.Errorf("device %d: %w", id, ErrUnknownDevice)
		}
	}

	return nil
}

func (t *Topology) connect(id1, id2 DeviceID) {
	t.adjacency[id1][id2] = types.Void
	t.adjacency[id2][id1] = types.Void
}

func (t *Topology) disconnect(id1, id2 DeviceID) error {
	if err := t.requireDevices(id1, id2); err != nil {
		return xerrors.Errorf("failed to disconnect %d <-> %d: %w", id1, id2, err)
	}
	if !t.isConnected(id1, id2) {
		return xerrors.Errorf("failed to disconnect %d <-> %d: %w", id1, id2, ErrNotConnected)
	}

	delete(t.adjacency[id1], id2)
	delete(t.adjacency[id2], id1)

	return nil
}

// isConnected only reports an edge if both directions are present.
func (t *Topology) isConnected(id1, id2 DeviceID) bool {
	if _, exists := t.adjacency[id1][id2]; !exists {
		return false
	}
	_, exists := t.adjacency[id2][id1]

	return exists
}

func sortedIDs(set map[DeviceID]types.Empty) (ids []DeviceID) {
	ids = make([]DeviceID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TopologyEvents ///////////////////////////////////////////////////////////////////////////////////////////////

type TopologyEvents struct {
	Connected    *events.Event
	Disconnected *events.Event
}

func deviceIDPairEventCaller(handler interface{}, params ...interface{}) {
	handler.(func(DeviceID, DeviceID))(params[0].(DeviceID), params[1].(DeviceID))
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
