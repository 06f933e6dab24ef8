package simulation

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iotaledger/adhoc-simulation/config"
)

func TestParseArgs(t *testing.T) {
	defaults := config.Params
	config.Params = config.NewDefaultConfig()
	defer func() { config.Params = defaults }()

	ParseArgs(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-maxNetworkSpeed", "5120",
		"-simulationInterval", "250ms",
		"-nodesCount", "7",
		"-demo",
	})

	assert.Equal(t, 5120, config.Params.MaxNetworkSpeed)
	assert.Equal(t, 250*time.Millisecond, config.Params.SimulationInterval)
	assert.Equal(t, 7, config.Params.NodesCount)
	assert.True(t, config.Params.Demo)
	assert.Equal(t, config.PayloadSize, config.Params.PayloadSize, "flags that are not set keep their default")
}
