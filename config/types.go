package config

import (
	"time"
)

// Params holds the configuration of the current run. It starts with the defaults and is updated by the flags.
var Params = NewDefaultConfig()

type Config struct {
	*SimulatorSettings
	*NetworkSettings
	*MetricsSettings
}

func NewDefaultConfig() *Config {
	return &Config{
		SimulatorSettings: &SimulatorSettings{
			SimulationDuration: SimulationDuration,
			LogLevel:           LogLevel,
		},
		NetworkSettings: &NetworkSettings{
			MaxNetworkSpeed:    MaxNetworkSpeed,
			SimulationInterval: SimulationInterval,
			WorkerCount:        WorkerCount,
			NodesCount:         NodesCount,
			NeighbourCountWS:   NeighbourCountWS,
			RandomnessWS:       RandomnessWS,
			IssuingRate:        IssuingRate,
			PayloadSize:        PayloadSize,
		},
		MetricsSettings: &MetricsSettings{
			ResultDir:   ResultDir,
			MetricsTick: MetricsTick,
		},
	}
}

type SimulatorSettings struct {
	// How long the random workload runs before the simulation is shut down.
	SimulationDuration time.Duration
	// One of debug, info, warn, error.
	LogLevel string
	// Runs the two device example instead of the random workload.
	Demo bool
}

type NetworkSettings struct {
	// MaxNetworkSpeed is the number of bytes a device receives per tick, summed over all senders.
	MaxNetworkSpeed int
	// SimulationInterval is the time between two ticks of a device that has data queued.
	SimulationInterval time.Duration
	// Number of goroutines processing ticks.
	WorkerCount int
	// NodesCount is the total number of devices simulated in the network.
	NodesCount int
	// Number of neighbors a device is connected to in WattsStrogatz network topology.
	NeighbourCountWS int
	// WattsStrogatz randomness parameter.
	RandomnessWS float64
	// Total rate of issuing transfers in units of transfers per second.
	IssuingRate float64
	// Size of a single transfer in bytes.
	PayloadSize int
}

type MetricsSettings struct {
	// Path where all the result files will be saved.
	ResultDir string
	// Interval in which the throughput metrics are written.
	MetricsTick time.Duration
}
