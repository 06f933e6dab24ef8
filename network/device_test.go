package network

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"golang.org/x/xerrors"
)

func TestDevice_Neighbors(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2", d1.ID)
	d3 := register(t, testNetwork, "D3", d1.ID)

	neighbors, err := d1.Neighbors()
	require.NoError(t, err)
	assert.Equal(t, []*Device{d2, d3}, neighbors)

	require.NoError(t, testNetwork.Leave(d3))
	neighbors, err = d1.Neighbors()
	require.NoError(t, err)
	assert.Equal(t, []*Device{d2}, neighbors)

	_, err = d3.Neighbors()
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))
}

func TestDevice_SendUnregistered(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")

	err := NewDevice("stranger").Send(d1, []byte("hello"), nil)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))
}

func TestDevice_SendToUnregisteredTarget(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2", d1.ID)

	received := atomic.NewInt64(0)
	d1.OnDataReceived(func(event *DataReceivedEvent) { received.Inc() })

	// an unregistered device carries the zero id of D1
	err := d2.Send(NewDevice("stranger"), []byte("hello"), nil)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))

	require.NoError(t, testNetwork.Leave(d1))
	err = d2.Send(d1, []byte("hello"), nil)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))

	assert.Never(t, func() bool { return received.Load() != 0 }, 10*testInterval, tick)
}

func TestDevice_SendToDeviceOfAnotherNetwork(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2", d1.ID)

	otherNetwork := newTestNetwork(t, 10)
	register(t, otherNetwork, "O1")
	foreign := register(t, otherNetwork, "O2")
	require.Equal(t, d2.ID, foreign.ID)

	received := atomic.NewInt64(0)
	d2.OnDataReceived(func(event *DataReceivedEvent) { received.Inc() })
	foreign.OnDataReceived(func(event *DataReceivedEvent) { received.Inc() })

	err := d1.Send(foreign, []byte("hello"), nil)
	assert.True(t, xerrors.Is(err, ErrUnknownDevice))
	assert.Equal(t, 0, testNetwork.Scheduler.Pending(d2.ID))

	assert.Never(t, func() bool { return received.Load() != 0 }, 10*testInterval, tick)
}

func TestDevice_SendAndWait(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2", d1.ID)

	received := atomic.NewInt64(0)
	d2.OnDataReceived(func(event *DataReceivedEvent) {
		received.Add(int64(len(event.Data)))
	})

	require.NoError(t, d1.SendAndWait(context.Background(), d2, make([]byte, 35)))
	assert.EqualValues(t, 35, received.Load(), "all chunks are delivered before the wait returns")
}

func TestDevice_SendAndWaitTimeout(t *testing.T) {
	testNetwork := New(MaxNetworkSpeed(1), SimulationInterval(time.Second))
	defer testNetwork.Shutdown()

	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2", d1.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d1.SendAndWait(ctx, d2, make([]byte, 100))
	assert.True(t, xerrors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, testNetwork.Scheduler.Pending(d2.ID), "the transfer is not cancelled")
}

func TestDevice_SendAndWaitNotConnected(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2")

	err := d1.SendAndWait(context.Background(), d2, []byte("hello"))
	assert.True(t, xerrors.Is(err, ErrNotConnected))
}

func TestDevice_HandlersAreCalledInOrder(t *testing.T) {
	testNetwork := newTestNetwork(t, 10)
	d1 := register(t, testNetwork, "D1")
	d2 := register(t, testNetwork, "D2", d1.ID)

	calls := make(chan int, 3)
	for i := 1; i <= 3; i++ {
		i := i
		d2.OnDataReceived(func(event *DataReceivedEvent) {
			calls <- i
		})
	}

	require.NoError(t, d1.SendAndWait(context.Background(), d2, []byte("hello")))
	assert.Equal(t, 1, <-calls)
	assert.Equal(t, 2, <-calls)
	assert.Equal(t, 3, <-calls)
}

func TestDevice_String(t *testing.T) {
	assert.Equal(t, "Device0(D1)", NewDevice("D1").String())
	assert.Equal(t, "Device0", NewDevice("").String())
}
