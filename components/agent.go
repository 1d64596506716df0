package components

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AgentStride is the number of 32-bit words in one packed agent record.
const AgentStride = 16

// AgentBytes is the size in bytes of one packed agent record.
const AgentBytes = AgentStride * 4

// Agent is one independent walker. The field order and padding mirror the
// packed compute layout:
//
//	posX, posY, heading, speed, sensorLength, sensorSize, pad, pad,
//	turn0, turn1, turn2, pad, sensor0, sensor1, sensor2, pad
//
// Only PosX, PosY and Heading change after spawning.
type Agent struct {
	PosX, PosY   float32
	Heading      float32 // radians
	Speed        float32 // cells per tick
	SensorLength float32 // distance from position to sensor centre
	SensorSize   float32 // sample box radius in cells
	_            [2]float32
	TurnAngles   [3]float32 // heading delta applied when sensor k wins
	_            float32
	SensorAngles [3]float32 // sensor offsets relative to heading
	_            float32
}

// Words returns the record as its 16 packed words (padding is zero).
func (a *Agent) Words() [AgentStride]float32 {
	return [AgentStride]float32{
		a.PosX, a.PosY, a.Heading, a.Speed,
		a.SensorLength, a.SensorSize, 0, 0,
		a.TurnAngles[0], a.TurnAngles[1], a.TurnAngles[2], 0,
		a.SensorAngles[0], a.SensorAngles[1], a.SensorAngles[2], 0,
	}
}

// AgentFromWords rebuilds an agent from its packed words. Padding is ignored.
func AgentFromWords(w [AgentStride]float32) Agent {
	return Agent{
		PosX:         w[0],
		PosY:         w[1],
		Heading:      w[2],
		Speed:        w[3],
		SensorLength: w[4],
		SensorSize:   w[5],
		TurnAngles:   [3]float32{w[8], w[9], w[10]},
		SensorAngles: [3]float32{w[12], w[13], w[14]},
	}
}

// AgentTable is a fixed population of agents stored contiguously.
// The population never grows or shrinks after NewAgentTable.
type AgentTable struct {
	agents []Agent
}

// NewAgentTable allocates a table of n zeroed agents.
func NewAgentTable(n int) *AgentTable {
	if n < 0 {
		n = 0
	}
	return &AgentTable{agents: make([]Agent, n)}
}

// Len returns the population size.
func (t *AgentTable) Len() int { return len(t.agents) }

// At returns a pointer to agent i. Callers updating in parallel must only
// touch the indices they own.
func (t *AgentTable) At(i int) *Agent { return &t.agents[i] }

// Snapshot copies the current agent records.
func (t *AgentTable) Snapshot() []Agent {
	out := make([]Agent, len(t.agents))
	copy(out, t.agents)
	return out
}

// AppendBinary appends the table in the packed little-endian layout.
func (t *AgentTable) AppendBinary(b []byte) ([]byte, error) {
	for i := range t.agents {
		for _, w := range t.agents[i].Words() {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(w))
		}
	}
	return b, nil
}

// DecodeAgents parses records produced by AppendBinary.
func DecodeAgents(data []byte) ([]Agent, error) {
	if len(data)%AgentBytes != 0 {
		return nil, fmt.Errorf("agent data length %d is not a multiple of %d", len(data), AgentBytes)
	}
	out := make([]Agent, len(data)/AgentBytes)
	for i := range out {
		var w [AgentStride]float32
		rec := data[i*AgentBytes : (i+1)*AgentBytes]
		for j := range w {
			w[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[j*4:]))
		}
		out[i] = AgentFromWords(w)
	}
	return out, nil
}
