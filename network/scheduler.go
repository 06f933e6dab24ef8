package network

import (
	"sync"
	"time"

	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/timedexecutor"
	"github.com/iotaledger/hive.go/typeutils"
	"go.uber.org/atomic"
)

// region Scheduler ////////////////////////////////////////////////////////////////////////////////////////////////////

// Scheduler throttles transfers on the receiving side. Every destination with queued transfers is ticked once per
// simulation interval, and each tick delivers at most maxNetworkSpeed bytes of the oldest transfer.
type Scheduler struct {
	Events *SchedulerEvents

	maxNetworkSpeed    int
	simulationInterval time.Duration
	timedExecutor      *timedexecutor.TimedExecutor
	destinations       map[DeviceID]*destination
	destinationsMutex  sync.Mutex
	activeCount        atomic.Int64
	shutdown           typeutils.AtomicBool
	shutdownOnce       sync.Once
}

func NewScheduler(maxNetworkSpeed int, simulationInterval time.Duration, workerCount int) (scheduler *Scheduler) {
	return &Scheduler{
		Events: &SchedulerEvents{
			TransferQueued:    events.NewEvent(transferEventCaller),
			ChunkDelivered:    events.NewEvent(chunkEventCaller),
			TransferCompleted: events.NewEvent(transferEventCaller),
		},

		maxNetworkSpeed:    maxNetworkSpeed,
		simulationInterval: simulationInterval,
		timedExecutor:      timedexecutor.New(workerCount),
		destinations:       make(map[DeviceID]*destination),
	}
}

func (s *Scheduler) MaxNetworkSpeed() int {
	return s.maxNetworkSpeed
}

func (s *Scheduler) SimulationInterval() time.Duration {
	return s.simulationInterval
}

// Enqueue appends the transfer to the queue of its destination and starts ticking the destination if it was idle.
func (s *Scheduler) Enqueue(transfer *Transfer) {
	d := s.destination(transfer.Destination)

	d.mutex.Lock()
	for d.pruned {
		d.mutex.Unlock()

		d = s.destination(transfer.Destination)
		d.mutex.Lock()
	}
	d.queue = append(d.queue, transfer)
	if !d.active {
		d.active = true
		s.activeCount.Inc()
		s.scheduleTick(d)
	}
	d.mutex.Unlock()

	s.Events.TransferQueued.Trigger(transfer)
}

// Pending returns the number of transfers queued for the given destination, including the one in progress.
func (s *Scheduler) Pending(id DeviceID) int {
	d := s.lookup(id)
	if d == nil {
		return 0
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	return len(d.queue)
}

// Active returns true if the destination has a pending tick.
func (s *Scheduler) Active(id DeviceID) bool {
	d := s.lookup(id)
	if d == nil {
		return false
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.active
}

// ActiveDestinations returns the number of destinations that are currently being ticked.
func (s *Scheduler) ActiveDestinations() int {
	return int(s.activeCount.Load())
}

// Shutdown stops the executor and drops all pending ticks. Queued transfers stay queued but are never delivered.
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.shutdown.Set()
		s.timedExecutor.Shutdown(timedexecutor.CancelPendingTasks)

		s.destinationsMutex.Lock()
		destinations := make([]*destination, 0, len(s.destinations))
		for _, d := range s.destinations {
			destinations = append(destinations, d)
		}
		s.destinationsMutex.Unlock()

		for _, d := range destinations {
			d.mutex.Lock()
			if d.pendingTick != nil {
				d.pendingTick.Cancel()
				d.pendingTick = nil
			}
			s.deactivate(d)
			d.mutex.Unlock()
		}
	})
}

func (s *Scheduler) destination(id DeviceID) *destination {
	s.destinationsMutex.Lock()
	defer s.destinationsMutex.Unlock()

	d, exists := s.destinations[id]
	if !exists {
		d = &destination{id: id}
		s.destinations[id] = d
	}

	return d
}

func (s *Scheduler) lookup(id DeviceID) *destination {
	s.destinationsMutex.Lock()
	defer s.destinationsMutex.Unlock()

	return s.destinations[id]
}

// prune drops an idle destination, so devices that left do not pile up. It needs to be called while holding the lock
// of the destination.
func (s *Scheduler) prune(d *destination) {
	d.pruned = true

	s.destinationsMutex.Lock()
	defer s.destinationsMutex.Unlock()

	if s.destinations[d.id] == d {
		delete(s.destinations, d.id)
	}
}

// scheduleTick needs to be called while holding the lock of the destination.
func (s *Scheduler) scheduleTick(d *destination) {
	if s.shutdown.IsSet() {
		s.deactivate(d)
		return
	}

	d.pendingTick = s.timedExecutor.ExecuteAfter(func() {
		s.tick(d)
	}, s.simulationInterval)
}

func (s *Scheduler) tick(d *destination) {
	d.mutex.Lock()
	d.pendingTick = nil
	if len(d.queue) == 0 {
		s.deactivate(d)
		s.prune(d)
		d.mutex.Unlock()

		return
	}

	transfer := d.queue[0]
	chunk := transfer.nextChunk(s.maxNetworkSpeed)
	completed := transfer.Completed()
	if completed {
		d.queue[0] = nil
		d.queue = d.queue[1:]
	}
	d.mutex.Unlock()

	if len(chunk) != 0 {
		transfer.deliver(chunk)
		s.Events.ChunkDelivered.Trigger(transfer, len(chunk))
	}

	if completed {
		log.Debugf("%s ... [DONE]", transfer)
		s.Events.TransferCompleted.Trigger(transfer)
		transfer.complete()
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.queue) == 0 {
		s.deactivate(d)
		s.prune(d)
		return
	}
	s.scheduleTick(d)
}

func (s *Scheduler) deactivate(d *destination) {
	if d.active {
		d.active = false
		s.activeCount.Dec()
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region destination //////////////////////////////////////////////////////////////////////////////////////////////////

// destination is idle (no pending tick, empty queue) or active (pending or running tick, non-empty queue). A pruned
// destination was removed from the scheduler and must not be used anymore.
type destination struct {
	id          DeviceID
	queue       []*Transfer
	active      bool
	pruned      bool
	pendingTick *timedexecutor.ScheduledTask
	mutex       sync.Mutex
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region SchedulerEvents //////////////////////////////////////////////////////////////////////////////////////////////

type SchedulerEvents struct {
	TransferQueued    *events.Event
	ChunkDelivered    *events.Event
	TransferCompleted *events.Event
}

func transferEventCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Transfer))(params[0].(*Transfer))
}

func chunkEventCaller(handler interface{}, params ...interface{}) {
	handler.(func(*Transfer, int))(params[0].(*Transfer), params[1].(int))
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
