package network

import (
	"sort"

	"github.com/iotaledger/hive.go/crypto"
	"golang.org/x/xerrors"
)

// region PeeringStrategy //////////////////////////////////////////////////////////////////////////////////////////////

type PeeringStrategy func(network *Network, devices []*Device) error

// WattsStrogatz builds a ring lattice where every device is connected to its meanDegree nearest devices and then
// rewires each edge with the given probability.
func WattsStrogatz(meanDegree int, randomness float64) PeeringStrategy {
	if meanDegree%2 != 0 {
		panic("Invalid argument: meanDegree needs to be even")
	}

	return func(network *Network, devices []*Device) error {
		nodeCount := len(devices)
		if nodeCount <= meanDegree {
			return xerrors.Errorf("watts strogatz needs more than %d devices, got %d", meanDegree, nodeCount)
		}

		graph := make(map[int]map[int]bool)
		for nodeID := 0; nodeID < nodeCount; nodeID++ {
			graph[nodeID] = make(map[int]bool)

			for j := nodeID + 1; j <= nodeID+meanDegree/2; j++ {
				graph[nodeID][j%nodeCount] = true
			}
		}

		for tail := 0; tail < nodeCount; tail++ {
			edges := graph[tail]
			for _, head := range sortedKeys(edges) {
				if crypto.Randomness.Float64() >= randomness {
					continue
				}

				candidates := make([]int, 0, nodeCount)
				for newHead := 0; newHead < nodeCount; newHead++ {
					if newHead != tail && !graph[newHead][tail] && !edges[newHead] {
						candidates = append(candidates, newHead)
					}
				}
				if len(candidates) == 0 {
					continue
				}

				delete(edges, head)
				edges[candidates[crypto.Randomness.Intn(len(candidates))]] = true
			}
		}

		ids1 := make([]DeviceID, 0, nodeCount*meanDegree/2)
		ids2 := make([]DeviceID, 0, nodeCount*meanDegree/2)
		for sourceNodeID := 0; sourceNodeID < nodeCount; sourceNodeID++ {
			targetNodeIDs := sortedKeys(graph[sourceNodeID])
			log.Debugf("%s: Number of new neighbors: %d", devices[sourceNodeID], len(targetNodeIDs))

			for _, targetNodeID := range targetNodeIDs {
				ids1 = append(ids1, devices[sourceNodeID].ID)
				ids2 = append(ids2, devices[targetNodeID].ID)
			}
		}
		log.Infof("Average number of neighbors: %.1f", float64(2*len(ids1))/float64(nodeCount))

		return network.ConnectAll(ids1, ids2)
	}
}

// FullMesh connects every device with every other device.
func FullMesh() PeeringStrategy {
	return func(network *Network, devices []*Device) error {
		ids1 := make([]DeviceID, 0)
		ids2 := make([]DeviceID, 0)
		for i := range devices {
			for j := i + 1; j < len(devices); j++ {
				ids1 = append(ids1, devices[i].ID)
				ids2 = append(ids2, devices[j].ID)
			}
		}

		return network.ConnectAll(ids1, ids2)
	}
}

// Line connects the devices in the order they are given, which is a multi-hop chain.
func Line() PeeringStrategy {
	return func(network *Network, devices []*Device) error {
		if len(devices) < 2 {
			return nil
		}

		ids1 := make([]DeviceID, 0, len(devices)-1)
		ids2 := make([]DeviceID, 0, len(devices)-1)
		for i := 1; i < len(devices); i++ {
			ids1 = append(ids1, devices[i-1].ID)
			ids2 = append(ids2, devices[i].ID)
		}

		return network.ConnectAll(ids1, ids2)
	}
}

func sortedKeys(m map[int]bool) (keys []int) {
	keys = make([]int, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	return keys
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
