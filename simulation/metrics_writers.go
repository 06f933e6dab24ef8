package simulation

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"golang.org/x/xerrors"

	"github.com/iotaledger/adhoc-simulation/network"
)

type csvRows [][]string

// SetupWriters sets up the csv writers for the simulation.
func (s *MetricsManager) SetupWriters() (err error) {
	if err = os.MkdirAll(s.resultDir, 0o755); err != nil {
		return xerrors.Errorf("failed to create result directory %s: %w", s.resultDir, err)
	}

	if err = s.DumpOnce("nw",
		[]string{"Device ID", "Neighbor ID"},
		func() csvRows {
			rows := make(csvRows, 0)
			s.network.Topology.ForEachEdge(func(id1, id2 network.DeviceID) {
				rows = append(rows, []string{formatID(id1), formatID(id2)})
			})
			return rows
		},
	); err != nil {
		return err
	}

	if err = s.DumpOnTick("tp",
		[]string{"Devices", "Edges", "Active Destinations", "Transfers Queued", "Transfers Completed", "Bytes Delivered", "ns since start"},
		func() csvRows {
			return csvRows{{
				strconv.FormatInt(s.GlobalCounters.Get("devices"), 10),
				strconv.FormatInt(s.GlobalCounters.Get("edges"), 10),
				strconv.Itoa(s.network.Scheduler.ActiveDestinations()),
				strconv.FormatInt(s.GlobalCounters.Get("transfersQueued"), 10),
				strconv.FormatInt(s.GlobalCounters.Get("transfersCompleted"), 10),
				strconv.FormatInt(s.GlobalCounters.Get("bytesDelivered"), 10),
				strconv.FormatInt(time.Since(s.simulationStartTime).Nanoseconds(), 10),
			}}
		},
	); err != nil {
		return err
	}

	s.DumpOnShutdown("nd",
		[]string{"Device ID", "Name", "Bytes Sent", "Bytes Received", "Transfers Received"},
		func() csvRows {
			devices := s.devices()
			rows := make(csvRows, 0, len(devices))
			for _, device := range devices {
				rows = append(rows, []string{
					formatID(device.ID),
					device.Name,
					strconv.FormatInt(s.DeviceCounters.Get("bytesSent", device.ID), 10),
					strconv.FormatInt(s.DeviceCounters.Get("bytesReceived", device.ID), 10),
					strconv.FormatInt(s.DeviceCounters.Get("transfersReceived", device.ID), 10),
				})
			}
			return rows
		},
	)

	return nil
}

// DumpOnTick registers a new writer that is filled every metrics tick.
func (s *MetricsManager) DumpOnTick(key string, header []string, collectFunc func() csvRows) error {
	resultsWriter, err := s.createWriter(key, header)
	if err != nil {
		return err
	}

	s.writers[key] = resultsWriter
	s.collectFuncs[key] = collectFunc

	return nil
}

// DumpOnce dumps the results once.
func (s *MetricsManager) DumpOnce(key string, header []string, collectFunc func() csvRows) error {
	resultsWriter, err := s.createWriter(key, header)
	if err != nil {
		return err
	}

	for _, row := range collectFunc() {
		if err = resultsWriter.Write(row); err != nil {
			return xerrors.Errorf("error writing record to %s csv: %w", key, err)
		}
	}
	resultsWriter.Flush()

	if err = resultsWriter.Error(); err != nil {
		return xerrors.Errorf("error flushing %s csv: %w", key, err)
	}

	return nil
}

// DumpOnShutdown dumps the results once when the metrics manager is shut down.
func (s *MetricsManager) DumpOnShutdown(key string, header []string, collectFunc func() csvRows) {
	s.onShutdownDumpers = append(s.onShutdownDumpers, func() error {
		return s.DumpOnce(key, header, collectFunc)
	})
}

func (s *MetricsManager) createWriter(key string, header []string) (*csv.Writer, error) {
	filename := fmt.Sprintf("%s-%s.csv", key, formatTime(s.simulationStartTime))
	file, err := os.Create(path.Join(s.resultDir, filename))
	if err != nil {
		return nil, xerrors.Errorf("failed to create %s: %w", filename, err)
	}
	s.files = append(s.files, file)

	resultsWriter := csv.NewWriter(file)
	if err = resultsWriter.Write(header); err != nil {
		return nil, xerrors.Errorf("failed to write header of %s: %w", filename, err)
	}
	resultsWriter.Flush()

	return resultsWriter, nil
}

func formatID(id network.DeviceID) string {
	return strconv.FormatInt(int64(id), 10)
}
