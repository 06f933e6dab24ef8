package simulation

import (
	"flag"

	"github.com/iotaledger/adhoc-simulation/config"
	"github.com/iotaledger/adhoc-simulation/logger"
)

// ParseFlags parses the command line and updates config.Params.
func ParseFlags() {
	ParseArgs(flag.CommandLine, nil)
}

// ParseArgs defines the configuration flags on the given flag set, parses args and updates config.Params. A nil
// args slice parses the command line arguments of the process.
func ParseArgs(flagSet *flag.FlagSet, args []string) {
	maxNetworkSpeedPtr :=
		flagSet.Int("maxNetworkSpeed", config.Params.MaxNetworkSpeed, "The number of bytes a device receives per tick")
	simulationIntervalPtr :=
		flagSet.Duration("simulationInterval", config.Params.SimulationInterval, "The time between two ticks of a busy device")
	workerCountPtr :=
		flagSet.Int("workerCount", config.Params.WorkerCount, "The number of goroutines processing ticks")
	nodesCountPtr :=
		flagSet.Int("nodesCount", config.Params.NodesCount, "The number of devices")
	neighbourCountWSPtr :=
		flagSet.Int("WattsStrogatzNeighborCount", config.Params.NeighbourCountWS, "Number of neighbors a device is connected to in WattsStrogatz network topology")
	randomnessWSPtr :=
		flagSet.Float64("WattsStrogatzRandomness", config.Params.RandomnessWS, "WattsStrogatz randomness parameter")
	issuingRatePtr :=
		flagSet.Float64("issuingRate", config.Params.IssuingRate, "The number of transfers issued per second")
	payloadSizePtr :=
		flagSet.Int("payloadSize", config.Params.PayloadSize, "The size of a single transfer in bytes")
	simulationDurationPtr :=
		flagSet.Duration("simulationDuration", config.Params.SimulationDuration, "How long the workload runs")
	metricsTickPtr :=
		flagSet.Duration("metricsTick", config.Params.MetricsTick, "The interval in which throughput metrics are written")
	resultDirPtr :=
		flagSet.String("resultDir", config.Params.ResultDir, "Directory where the results will be stored")
	logLevelPtr :=
		flagSet.String("logLevel", config.Params.LogLevel, "One of debug, info, warn, error")
	demoPtr :=
		flagSet.Bool("demo", config.Params.Demo, "Run the two device example instead of the random workload")

	if args == nil {
		flag.Parse()
	} else if err := flagSet.Parse(args); err != nil {
		log.Errorf("failed to parse flags: %s", err)
	}

	config.Params.MaxNetworkSpeed = *maxNetworkSpeedPtr
	config.Params.SimulationInterval = *simulationIntervalPtr
	config.Params.WorkerCount = *workerCountPtr
	config.Params.NodesCount = *nodesCountPtr
	config.Params.NeighbourCountWS = *neighbourCountWSPtr
	config.Params.RandomnessWS = *randomnessWSPtr
	config.Params.IssuingRate = *issuingRatePtr
	config.Params.PayloadSize = *payloadSizePtr
	config.Params.SimulationDuration = *simulationDurationPtr
	config.Params.MetricsTick = *metricsTickPtr
	config.Params.ResultDir = *resultDirPtr
	config.Params.LogLevel = *logLevelPtr
	config.Params.Demo = *demoPtr

	if err := logger.SetLevel(config.Params.LogLevel); err != nil {
		log.Warnf("%s, keeping the previous level", err)
	}

	log.Info("Current configuration:")
	log.Info("MaxNetworkSpeed: ", config.Params.MaxNetworkSpeed)
	log.Info("SimulationInterval: ", config.Params.SimulationInterval)
	log.Info("WorkerCount: ", config.Params.WorkerCount)
	log.Info("NodesCount: ", config.Params.NodesCount)
	log.Info("WattsStrogatzNeighborCount: ", config.Params.NeighbourCountWS)
	log.Info("WattsStrogatzRandomness: ", config.Params.RandomnessWS)
	log.Info("IssuingRate: ", config.Params.IssuingRate)
	log.Info("PayloadSize: ", config.Params.PayloadSize)
	log.Info("SimulationDuration: ", config.Params.SimulationDuration)
	log.Info("MetricsTick: ", config.Params.MetricsTick)
	log.Info("ResultDir: ", config.Params.ResultDir)
	log.Info("LogLevel: ", config.Params.LogLevel)
	log.Info("Demo: ", config.Params.Demo)
}
