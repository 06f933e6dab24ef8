package network

import (
	"sort"
	"sync"
	"time"

	"github.com/iotaledger/hive.go/crypto"
	"github.com/iotaledger/hive.go/datastructure/set"
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/typeutils"
	"golang.org/x/xerrors"

	"github.com/iotaledger/adhoc-simulation/logger"
)

const (
	// DefaultMaxNetworkSpeed is the number of bytes a destination receives per tick.
	DefaultMaxNetworkSpeed = 10 << 10
	// DefaultSimulationInterval is the time between two ticks of a destination.
	DefaultSimulationInterval = 500 * time.Millisecond
	// DefaultWorkerCount is the number of goroutines that process ticks.
	DefaultWorkerCount = 1
)

var log = logger.New("Network")

// region Network //////////////////////////////////////////////////////////////////////////////////////////////////////

// Network is the shared context of all registered devices. It owns the topology, the device registry and the
// delivery scheduler.
type Network struct {
	Events    *NetworkEvents
	Topology  *Topology
	Scheduler *Scheduler

	devices      map[DeviceID]*Device
	nextID       DeviceID
	devicesMutex sync.RWMutex
	shutdown     typeutils.AtomicBool
}

func New(option ...Option) (network *Network) {
	log.Debug("Creating Network ...")
	defer log.Info("Creating Network ... [DONE]")

	configuration := NewConfiguration(option...)

	network = &Network{
		Events: &NetworkEvents{
			DeviceRegistered: events.NewEvent(deviceEventCaller),
			DeviceLeft:       events.NewEvent(deviceEventCaller),
		},
		Topology:  NewTopology(),
		Scheduler: NewScheduler(configuration.maxNetworkSpeed, configuration.simulationInterval, configuration.workerCount),

		devices: make(map[DeviceID]*Device),
	}

	log.Infof("Network speed: %d bytes every %s", configuration.maxNetworkSpeed, configuration.simulationInterval)

	return
}

// Register adds the device to the network, connects it to the given neighbors and returns its new id. Ids are
// never reused, not even after a device left.
func (n *Network) Register(device *Device, neighborIDs ...DeviceID) (id DeviceID, err error) {
	if !device.reserve() {
		return 0, xerrors.Errorf("failed to register %s: %w", device, ErrAlreadyRegistered)
	}

	n.devicesMutex.Lock()
	for _, neighborID := range neighborIDs {
		if _, exists := n.devices[neighborID]; !exists {
			n.devicesMutex.Unlock()
			device.release()
			return 0, xerrors.Errorf("failed to register %s with neighbor %d: %w", device, neighborID, ErrUnknownDevice)
		}
	}

	id = n.nextID
	n.nextID++

	n.devices[id] = device
	n.Topology.AddDevice(id)
	device.bind(n, id)
	n.devicesMutex.Unlock()

	for _, neighborID := range neighborIDs {
		if err = n.Topology.Connect(id, neighborID); err != nil {
			// the neighbor left while we were registering
			log.Warnf("Connecting %s to %d ... [FAILED]: %s", device, neighborID, err)
		}
	}

	log.Debugf("Registered %s with neighbors %v ... [DONE]", device, neighborIDs)
	n.Events.DeviceRegistered.Trigger(device)

	return id, nil
}

// Leave removes the device and all of its edges. Transfers from or to the device that are already queued are
// neither inspected nor cancelled.
func (n *Network) Leave(device *Device) (err error) {
	id := device.identifier()

	n.devicesMutex.Lock()
	if registeredDevice, exists := n.devices[id]; !exists || registeredDevice != device {
		n.devicesMutex.Unlock()
		return xerrors.Errorf("failed to remove %s: %w", device, ErrUnknownDevice)
	}
	delete(n.devices, id)

	formerNeighbors, err := n.Topology.RemoveDevice(id)
	device.unbind()
	n.devicesMutex.Unlock()

	if err != nil {
		return xerrors.Errorf("failed to remove %s: %w", device, err)
	}

	log.Debugf("%s left, disconnected from %v ... [DONE]", device, formerNeighbors)
	n.Events.DeviceLeft.Trigger(device)

	return nil
}

func (n *Network) Connect(id1, id2 DeviceID) error {
	return n.Topology.Connect(id1, id2)
}

func (n *Network) ConnectAll(ids1, ids2 []DeviceID) error {
	return n.Topology.ConnectAll(ids1, ids2)
}

func (n *Network) Disconnect(id1, id2 DeviceID) error {
	return n.Topology.Disconnect(id1, id2)
}

func (n *Network) DisconnectAll(ids1, ids2 []DeviceID) error {
	return n.Topology.DisconnectAll(ids1, ids2)
}

func (n *Network) Neighbors(id DeviceID) ([]DeviceID, error) {
	return n.Topology.Neighbors(id)
}

// Send queues data from one device to one of its neighbors. The connection is only checked here: disconnecting the
// devices afterwards does not stop the transfer.
func (n *Network) Send(from, to DeviceID, data []byte, onComplete func()) (err error) {
	return n.send(from, to, nil, data, onComplete)
}

// send queues the transfer. If target is not nil, the device registered under to must be target.
func (n *Network) send(from, to DeviceID, target *Device, data []byte, onComplete func()) (err error) {
	if n.shutdown.IsSet() {
		return xerrors.Errorf("failed to send %d -> %d: %w", from, to, ErrNetworkShutdown)
	}

	if !n.Topology.Has(from) {
		return xerrors.Errorf("failed to send %d -> %d: %w", from, to, ErrUnknownDevice)
	}
	if !n.Topology.IsConnected(from, to) {
		return xerrors.Errorf("failed to send %d -> %d: %w", from, to, ErrNotConnected)
	}

	n.devicesMutex.RLock()
	sender, senderExists := n.devices[from]
	receiver, receiverExists := n.devices[to]
	n.devicesMutex.RUnlock()
	if !senderExists || !receiverExists || (target != nil && receiver != target) {
		return xerrors.Errorf("failed to send %d -> %d: %w", from, to, ErrUnknownDevice)
	}

	transfer := NewTransfer(sender, receiver, data, onComplete)
	log.Debugf("Queueing %s ...", transfer)
	n.Scheduler.Enqueue(transfer)

	return nil
}

func (n *Network) Device(id DeviceID) (device *Device, err error) {
	n.devicesMutex.RLock()
	defer n.devicesMutex.RUnlock()

	device, exists := n.devices[id]
	if !exists {
		return nil, xerrors.Errorf("failed to retrieve device %d: %w", id, ErrUnknownDevice)
	}

	return device, nil
}

// Devices returns all registered devices ordered by id.
func (n *Network) Devices() (devices []*Device) {
	n.devicesMutex.RLock()
	defer n.devicesMutex.RUnlock()

	devices = make([]*Device, 0, len(n.devices))
	for _, device := range n.devices {
		devices = append(devices, device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })

	return devices
}

// RandomDevices returns count distinct registered devices, or all of them if there are fewer.
func (n *Network) RandomDevices(count int) (randomDevices []*Device) {
	devices := n.Devices()
	if count >= len(devices) {
		return devices
	}

	selectedDevices := set.New()
	for len(randomDevices) < count {
		if randomIndex := crypto.Randomness.Intn(len(devices)); selectedDevices.Add(randomIndex) {
			randomDevices = append(randomDevices, devices[randomIndex])
		}
	}

	return
}

// Apply connects the registered devices according to the given peering strategy.
func (n *Network) Apply(peeringStrategy PeeringStrategy) error {
	log.Debugf("Connecting devices ...")
	defer log.Info("Connecting devices ... [DONE]")

	return peeringStrategy(n, n.Devices())
}

func (n *Network) Shutdown() {
	n.shutdown.Set()
	n.Scheduler.Shutdown()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NetworkEvents ////////////////////////////////////////////////////////////////////////////////////////////////

type NetworkEvents struct {
	DeviceRegistered *events.Event
	DeviceLeft       *events.Event
}

func deviceEventCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Device))(params[0].(*Device))
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Configuration ////////////////////////////////////////////////////////////////////////////////////////////////

type Configuration struct {
	maxNetworkSpeed    int
	simulationInterval time.Duration
	workerCount        int
}

func NewConfiguration(options ...Option) (configuration *Configuration) {
	configuration = &Configuration{
		maxNetworkSpeed:    DefaultMaxNetworkSpeed,
		simulationInterval: DefaultSimulationInterval,
		workerCount:        DefaultWorkerCount,
	}
	for _, currentOption := range options {
		currentOption(configuration)
	}

	return
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Option ///////////////////////////////////////////////////////////////////////////////////////////////////////

type Option func(*Configuration)

// MaxNetworkSpeed sets the number of bytes a destination receives per tick. Non-positive values are ignored.
func MaxNetworkSpeed(bytesPerTick int) Option {
	return func(config *Configuration) {
		if bytesPerTick > 0 {
			config.maxNetworkSpeed = bytesPerTick
		}
	}
}

// SimulationInterval sets the time between two ticks of a destination. Non-positive values are ignored.
func SimulationInterval(interval time.Duration) Option {
	return func(config *Configuration) {
		if interval > 0 {
			config.simulationInterval = interval
		}
	}
}

func WorkerCount(workerCount int) Option {
	return func(config *Configuration) {
		if workerCount > 0 {
			config.workerCount = workerCount
		}
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
