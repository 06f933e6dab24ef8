package simulation

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/types"
	"golang.org/x/xerrors"

	"github.com/iotaledger/adhoc-simulation/logger"
	"github.com/iotaledger/adhoc-simulation/network"
)

var log = logger.New("Metrics")

type MetricsManager struct {
	network *network.Network

	// metrics
	GlobalCounters *AtomicCounters[string]
	DeviceCounters *MapCounters[network.DeviceID, int64]

	// internal variables for the metrics
	resultDir           string
	metricsTick         time.Duration
	simulationStartTime time.Time
	knownDevices        []*network.Device
	knownDevicesMutex   sync.Mutex

	// csv writers
	writers           map[string]*csv.Writer
	collectFuncs      map[string]func() csvRows
	files             []*os.File
	dumpingTicker     *time.Ticker
	onShutdownDumpers []func() error

	shutdown     chan types.Empty
	shutdownDone chan types.Empty
	shutdownOnce sync.Once
}

func NewMetricsManager(resultDir string, metricsTick time.Duration) *MetricsManager {
	return &MetricsManager{
		GlobalCounters: NewAtomicCounters[string](),
		DeviceCounters: NewCounters[network.DeviceID, int64](),

		resultDir:    resultDir,
		metricsTick:  metricsTick,
		knownDevices: make([]*network.Device, 0),

		writers:      make(map[string]*csv.Writer),
		collectFuncs: make(map[string]func() csvRows),

		shutdown:     make(chan types.Empty),
		shutdownDone: make(chan types.Empty),
	}
}

// Setup attaches the counters to the events of the network and creates the result files.
func (s *MetricsManager) Setup(n *network.Network) error {
	s.network = n
	s.SetupInternalVariables()
	s.SetupMetrics()
	s.SetupMetricsCollection()

	return s.SetupWriters()
}

func (s *MetricsManager) SetupInternalVariables() {
	s.knownDevices = append(s.knownDevices, s.network.Devices()...)
	s.simulationStartTime = time.Now()
}

func (s *MetricsManager) SetupMetrics() {
	s.GlobalCounters.CreateCounter("devices", int64(len(s.knownDevices)))
	s.GlobalCounters.CreateCounter("edges", int64(countEdges(s.network)))
	s.GlobalCounters.CreateCounter("transfersQueued", 0)
	s.GlobalCounters.CreateCounter("transfersCompleted", 0)
	s.GlobalCounters.CreateCounter("bytesDelivered", 0)

	s.DeviceCounters.CreateCounter("bytesSent")
	s.DeviceCounters.CreateCounter("bytesReceived")
	s.DeviceCounters.CreateCounter("transfersReceived")
}

func (s *MetricsManager) SetupMetricsCollection() {
	s.network.Events.DeviceRegistered.Attach(events.NewClosure(func(device *network.Device) {
		s.knownDevicesMutex.Lock()
		s.knownDevices = append(s.knownDevices, device)
		s.knownDevicesMutex.Unlock()

		s.GlobalCounters.Add("devices", 1)
	}))
	s.network.Events.DeviceLeft.Attach(events.NewClosure(func(device *network.Device) {
		s.GlobalCounters.Add("devices", -1)
		// the edges of the device are gone without individual events
		s.GlobalCounters.Set("edges", int64(countEdges(s.network)))
	}))
	s.network.Topology.Events.Connected.Attach(events.NewClosure(func(id1, id2 network.DeviceID) {
		s.GlobalCounters.Set("edges", int64(countEdges(s.network)))
	}))
	s.network.Topology.Events.Disconnected.Attach(events.NewClosure(func(id1, id2 network.DeviceID) {
		s.GlobalCounters.Set("edges", int64(countEdges(s.network)))
	}))

	s.network.Scheduler.Events.TransferQueued.Attach(events.NewClosure(func(transfer *network.Transfer) {
		s.GlobalCounters.Add("transfersQueued", 1)
	}))
	s.network.Scheduler.Events.ChunkDelivered.Attach(events.NewClosure(s.chunkDeliveredCollectFunc))
	s.network.Scheduler.Events.TransferCompleted.Attach(events.NewClosure(func(transfer *network.Transfer) {
		s.GlobalCounters.Add("transfersCompleted", 1)
		s.DeviceCounters.Add("transfersReceived", transfer.Destination, 1)
	}))
}

func (s *MetricsManager) chunkDeliveredCollectFunc(transfer *network.Transfer, size int) {
	s.GlobalCounters.Add("bytesDelivered", int64(size))
	s.DeviceCounters.Add("bytesSent", transfer.Source, int64(size))
	s.DeviceCounters.Add("bytesReceived", transfer.Destination, int64(size))
}

func (s *MetricsManager) StartMetricsCollection() {
	s.dumpingTicker = time.NewTicker(s.metricsTick)
	go func() {
		defer close(s.shutdownDone)

		for {
			select {
			case <-s.dumpingTicker.C:
				s.collectMetrics()
			case <-s.shutdown:
				s.collectMetrics()
				return
			}
		}
	}()
}

// Shutdown writes the final metrics and closes all result files.
func (s *MetricsManager) Shutdown() (err error) {
	s.shutdownOnce.Do(func() {
		if s.dumpingTicker != nil {
			s.dumpingTicker.Stop()
			close(s.shutdown)
			<-s.shutdownDone
		}

		err = s.dumpOnShutdown()

		for _, file := range s.files {
			if closeErr := file.Close(); closeErr != nil && err == nil {
				err = xerrors.Errorf("failed to close %s: %w", file.Name(), closeErr)
			}
		}
	})

	return err
}

func (s *MetricsManager) dumpOnShutdown() error {
	for _, dumper := range s.onShutdownDumpers {
		if err := dumper(); err != nil {
			return err
		}
	}

	return nil
}

func (s *MetricsManager) collectMetrics() {
	for key := range s.writers {
		s.collect(key)
	}
}

func (s *MetricsManager) collect(writerKey string) {
	writer := s.writers[writerKey]
	for _, row := range s.collectFuncs[writerKey]() {
		if err := writer.Write(row); err != nil {
			log.Errorf("error writing record to %s csv: %s", writerKey, err)
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("error flushing %s csv: %s", writerKey, err)
	}
}

func (s *MetricsManager) devices() []*network.Device {
	s.knownDevicesMutex.Lock()
	defer s.knownDevicesMutex.Unlock()

	devices := make([]*network.Device, len(s.knownDevices))
	copy(devices, s.knownDevices)

	return devices
}

func countEdges(n *network.Network) (edges int) {
	n.Topology.ForEachEdge(func(id1, id2 network.DeviceID) {
		edges++
	})

	return edges
}

func formatTime(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}
