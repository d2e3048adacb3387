// Command demo wires up a three-replica cluster over the in-memory Network
// and Storage backends, declares the fixture machine from the example
// states (A: +1/err>10, B: +2/err>20, C: +3/err>30, cycling A→B→C→A), and
// submits a handful of commands to show every replica converging on the
// same sequence of states.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/senutpal/quorumfsm/internal/fsm"
	"github.com/senutpal/quorumfsm/internal/network"
	"github.com/senutpal/quorumfsm/internal/rsm"
	"github.com/senutpal/quorumfsm/internal/storage"
)

// loggedCommand mirrors the wire shape rsm.Submit writes to the log (an ID
// plus the raw command payload) so this demo can decode entries it reads
// back with Replay.
type loggedCommand struct {
	ID      string `json:"id"`
	Payload []byte `json:"payload"`
}

// cycleState declares one of the fixture's A/B/C states. idx is its
// position in the A→B→C→A cycle, plus is the amount it adds to input to
// produce output, and threshold is the ceiling output must not exceed.
// Advance to the next state in the cycle when the input's parity matches
// idx's parity; otherwise self-loop. This is the same rule the fixture in
// internal/fsm's tests uses for its single-event and routine cases.
func cycleState(names []string, idx int, plus, threshold int) *fsm.State {
	name := names[idx]
	next := names[(idx+1)%len(names)]
	return &fsm.State{
		Name: name,
		To:   []string{name, next},
		Transition: func(input fsm.Input, _ fsm.Ctx) (string, error) {
			n := decodeInt(input.([]byte))
			if n+plus > threshold {
				return "", fmt.Errorf("output %d exceeds threshold %d", n+plus, threshold)
			}
			if (n%2 == 1) == (idx%2 == 0) {
				return next, nil
			}
			return name, nil
		},
		Output: func(input fsm.Input, _ fsm.Ctx) fsm.Output {
			return decodeInt(input.([]byte)) + plus
		},
	}
}

func buildMachine() (*fsm.Machine, error) {
	names := []string{"A", "B", "C"}
	b := fsm.NewBuilder("cycle")
	plusAndThreshold := [][2]int{{1, 10}, {2, 20}, {3, 30}}
	for idx, pt := range plusAndThreshold {
		s := cycleState(names, idx, pt[0], pt[1])
		b.State(s.Name, s.To, s.Substates, s.Transition, s.Output)
	}
	b.Routine("testing_1", []string{"A", "B", "C"})
	b.Routine("testing_2", []string{"A", "A", "B"})
	return b.Build()
}

func encodeInt(n int) []byte {
	return []byte{byte(n)}
}

func decodeInt(b []byte) int {
	return int(b[0])
}

func main() {
	logger := log.New(os.Stdout, "demo: ", log.LstdFlags)
	names := []string{"replica-1", "replica-2", "replica-3"}
	net := network.NewMemory(logger)

	replicas := make(map[string]*rsm.Replica, len(names))
	for _, name := range names {
		machine, err := buildMachine()
		if err != nil {
			logger.Fatalf("building machine for %s: %v", name, err)
		}
		r, err := rsm.Start(rsm.Config{
			Name:         name,
			Participants: names,
			Net:          net,
			Backend:      storage.NewMemory(),
			Machine:      machine,
			StartState:   "A",
			Ctx:          nil,
			Logger:       logger,
		})
		if err != nil {
			logger.Fatalf("starting replica %s: %v", name, err)
		}
		replicas[name] = r
	}
	defer func() {
		for _, r := range replicas {
			_ = r.Close()
		}
	}()

	// Rotate the proposing replica on every command to demonstrate that
	// consensus, not any one replica's local bookkeeping, orders the log —
	// every replica reserves its next instance past whatever the cluster has
	// already decided, including decisions it merely learned about.
	for i, input := range []int{1, 2, 1, 15} {
		name := names[i%len(names)]
		proposer := replicas[name]
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		seq, err := proposer.Submit(ctx, encodeInt(input))
		cancel()
		if err != nil {
			logger.Printf("%s submit(%d): %v", name, input, err)
			continue
		}
		time.Sleep(20 * time.Millisecond) // let the other replicas' learners catch up for this demo's printout
		logger.Printf("%s submit(%d) -> seq %d", name, input, seq)
		for _, n := range names {
			snap := replicas[n].Snapshot()
			logger.Printf("  %s: state=%s applied_seq=%d last_output=%v", n, snap.State, snap.AppliedSeq, snap.LastOutput)
		}
	}

	latest, err := replicas[names[0]].Replay(0)
	if err != nil {
		logger.Fatalf("replay: %v", err)
	}
	for _, entry := range latest {
		var cmd loggedCommand
		if err := json.Unmarshal(entry.Value, &cmd); err != nil {
			logger.Printf("log[%d]: undecodable: %v", entry.Seq, err)
			continue
		}
		logger.Printf("log[%d] = %d (correlation %s)", entry.Seq, decodeInt(cmd.Payload), cmd.ID)
	}
}
