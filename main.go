package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/iotaledger/hive.go/crypto"
	"github.com/iotaledger/hive.go/types"

	"github.com/iotaledger/adhoc-simulation/config"
	"github.com/iotaledger/adhoc-simulation/logger"
	"github.com/iotaledger/adhoc-simulation/network"
	"github.com/iotaledger/adhoc-simulation/simulation"
)

var (
	log          = logger.New("Simulation")
	simulationWg = sync.WaitGroup{}
	// closed to stop the workload
	shutdownSignal = make(chan types.Empty)
)

func main() {
	log.Info("Starting simulation ... [DONE]")
	defer log.Info("Shutting down simulation ... [DONE]")
	simulation.ParseFlags()

	if config.Params.Demo {
		runDemo()
		return
	}

	testNetwork := network.New(
		network.MaxNetworkSpeed(config.Params.MaxNetworkSpeed),
		network.SimulationInterval(config.Params.SimulationInterval),
		network.WorkerCount(config.Params.WorkerCount),
	)
	defer testNetwork.Shutdown()

	for i := 0; i < config.Params.NodesCount; i++ {
		if _, err := testNetwork.Register(network.NewDevice(fmt.Sprintf("D%d", i+1))); err != nil {
			log.Fatalf("failed to register device: %s", err)
		}
	}
	if err := testNetwork.Apply(network.WattsStrogatz(config.Params.NeighbourCountWS, config.Params.RandomnessWS)); err != nil {
		log.Fatalf("failed to connect devices: %s", err)
	}

	metricsManager := simulation.NewMetricsManager(config.Params.ResultDir, config.Params.MetricsTick)
	if err := metricsManager.Setup(testNetwork); err != nil {
		log.Fatalf("failed to set up metrics: %s", err)
	}
	metricsManager.StartMetricsCollection()

	simulationWg.Add(1)
	go issueTransfers(testNetwork)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-interrupt:
		log.Info("Shutting down simulation (interrupted) ...")
	case <-time.After(config.Params.SimulationDuration):
		log.Info("Shutting down simulation (simulation timed out) ...")
	}

	close(shutdownSignal)
	simulationWg.Wait()
	testNetwork.Shutdown()
	if err := metricsManager.Shutdown(); err != nil {
		log.Error(err)
	}
}

// issueTransfers sends a random payload from a random device to one of its neighbors at the configured rate.
func issueTransfers(testNetwork *network.Network) {
	defer simulationWg.Done()

	if config.Params.IssuingRate <= 0 {
		log.Warn("Issuing rate is 0, no transfers are issued")
		return
	}
	pace := time.Duration(float64(time.Second) / config.Params.IssuingRate)
	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	for {
		select {
		case <-shutdownSignal:
			return
		case <-ticker.C:
			issueTransfer(testNetwork)
		}
	}
}

func issueTransfer(testNetwork *network.Network) {
	for _, sender := range testNetwork.RandomDevices(1) {
		neighbors, err := sender.Neighbors()
		if err != nil || len(neighbors) == 0 {
			return
		}
		receiver := neighbors[crypto.Randomness.Intn(len(neighbors))]

		payload := make([]byte, config.Params.PayloadSize)
		crypto.Randomness.Read(payload)

		if err = sender.Send(receiver, payload, nil); err != nil {
			log.Warnf("%s -> %s ... [FAILED]: %s", sender, receiver, err)
		}
	}
}

// runDemo registers two devices and sends 20KB from the first to the second with 5KB per tick.
func runDemo() {
	demoNetwork := network.New(
		network.MaxNetworkSpeed(5<<10),
		network.SimulationInterval(config.Params.SimulationInterval),
	)
	defer demoNetwork.Shutdown()

	d1 := network.NewDevice("D1")
	d2 := network.NewDevice("D2")
	d1ID, err := demoNetwork.Register(d1)
	if err != nil {
		log.Fatal(err)
	}
	if _, err = demoNetwork.Register(d2, d1ID); err != nil {
		log.Fatal(err)
	}

	defaultReceivedHandler := func(device *network.Device) func(event *network.DataReceivedEvent) {
		return func(event *network.DataReceivedEvent) {
			log.Infof("Data received from %s to %s (%d bytes).", event.From.Name, device.Name, len(event.Data))
		}
	}
	d1.OnDataReceived(defaultReceivedHandler(d1))
	d2.OnDataReceived(defaultReceivedHandler(d2))

	if err = d1.SendAndWait(context.Background(), d2, make([]byte, 20<<10)); err != nil {
		log.Fatal(err)
	}
	log.Info("Data sent complete from D1 to D2")
}
