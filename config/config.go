package config

import "time"

const (
	MaxNetworkSpeed    = 10 << 10               // Bytes a device receives per tick.
	SimulationInterval = 500 * time.Millisecond // Time between two ticks of a busy device.
	WorkerCount        = 4
	NodesCount         = 50
	NeighbourCountWS   = 4
	RandomnessWS       = 0.2
	IssuingRate        = 10.0 // Transfers per second issued across the whole network.
	PayloadSize        = 32 << 10
	SimulationDuration = 30 * time.Second
	MetricsTick        = time.Second
	ResultDir          = "results"
	LogLevel           = "info"
)
