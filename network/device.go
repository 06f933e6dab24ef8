package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/iotaledger/hive.go/types"
	"golang.org/x/xerrors"
)

// region Device ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Device is a mobile device of the ad-hoc network. It only knows its neighbors and receives data in chunks, so
// reassembling the chunks of a transfer is up to the owner of the device.
type Device struct {
	ID   DeviceID
	Name string

	network  *Network
	reserved bool
	handlers []func(event *DataReceivedEvent)
	mutex    sync.RWMutex
}

func NewDevice(name string) (device *Device) {
	return &Device{
		Name: name,
	}
}

// Network returns the network the device is registered with, or nil.
func (d *Device) Network() *Network {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return d.network
}

// Neighbors returns the devices that are currently in range.
func (d *Device) Neighbors() (neighbors []*Device, err error) {
	network, id, err := d.requireNetwork()
	if err != nil {
		return nil, err
	}

	neighborIDs, err := network.Topology.Neighbors(id)
	if err != nil {
		return nil, err
	}

	neighbors = make([]*Device, 0, len(neighborIDs))
	for _, neighborID := range neighborIDs {
		neighbor, deviceErr := network.Device(neighborID)
		if deviceErr != nil {
			// the neighbor left in between
			continue
		}
		neighbors = append(neighbors, neighbor)
	}

	return neighbors, nil
}

// Send queues data for the target device. The optional callback is invoked once the last chunk was delivered.
func (d *Device) Send(target *Device, data []byte, onComplete func()) (err error) {
	network, id, err := d.requireNetwork()
	if err != nil {
		return err
	}

	targetNetwork, targetID, err := target.requireNetwork()
	if err != nil {
		return xerrors.Errorf("failed to send %s -> %s: %w", d, target, err)
	}
	if targetNetwork != network {
		return xerrors.Errorf("failed to send %s -> %s of another network: %w", d, target, ErrUnknownDevice)
	}

	return network.send(id, targetID, target, data, onComplete)
}

// SendAndWait sends data to the target device and blocks until the transfer completed or the context is done.
func (d *Device) SendAndWait(ctx context.Context, target *Device, data []byte) (err error) {
	completed := make(chan types.Empty)
	if err = d.Send(target, data, func() { close(completed) }); err != nil {
		return err
	}

	select {
	case <-completed:
		return nil
	case <-ctx.Done():
		return xerrors.Errorf("stopped waiting for %s -> %s: %w", d, target, ctx.Err())
	}
}

// OnDataReceived registers a handler for received chunks. Handlers are called in the order they were registered.
func (d *Device) OnDataReceived(handler func(event *DataReceivedEvent)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.handlers = append(d.handlers, handler)
}

func (d *Device) String() string {
	if d.Name != "" {
		return fmt.Sprintf("Device%d(%s)", d.ID, d.Name)
	}

	return fmt.Sprintf("Device%d", d.ID)
}

// reserve marks the device as being registered. It returns false if the device is registered or being registered
// already.
func (d *Device) reserve() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.network != nil || d.reserved {
		return false
	}
	d.reserved = true

	return true
}

func (d *Device) release() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.reserved = false
}

func (d *Device) bind(network *Network, id DeviceID) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.ID = id
	d.network = network
	d.reserved = false
}

func (d *Device) unbind() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.network = nil
}

func (d *Device) identifier() DeviceID {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return d.ID
}

func (d *Device) requireNetwork() (network *Network, id DeviceID, err error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if d.network == nil {
		return nil, d.ID, xerrors.Errorf("device %d is not registered: %w", d.ID, ErrUnknownDevice)
	}

	return d.network, d.ID, nil
}

func (d *Device) receive(event *DataReceivedEvent) {
	d.mutex.RLock()
	handlers := make([]func(event *DataReceivedEvent), len(d.handlers))
	copy(handlers, d.handlers)
	d.mutex.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region DeviceID /////////////////////////////////////////////////////////////////////////////////////////////////////

type DeviceID int64

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region DataReceivedEvent ////////////////////////////////////////////////////////////////////////////////////////////

// DataReceivedEvent carries a single chunk. Data may be only a part of what the sender sent.
type DataReceivedEvent struct {
	From   *Device
	FromID DeviceID
	Data   []byte
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
