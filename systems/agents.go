package systems

import (
	"github.com/chewxy/math32"

	"github.com/pthm-cable/slime/components"
)

// Sensors holds the three field readings of one agent, indexed like its
// SensorAngles and TurnAngles.
type Sensors [3]float32

// Intent is the position and heading an agent moves to this tick. It is
// written by Move and copied into the table by Apply.
type Intent struct {
	PosX, PosY float32
	Heading    float32
}

// AgentKernel advances agents against a relaxed field buffer.
//
// A tick runs Move over every agent and then, after a barrier, Deposit over
// every agent. Move only reads the field and the table, and writes the intent
// of the agent it owns; Deposit only accumulates into the field. Keeping them
// apart means no agent senses another agent's deposit from the same tick.
// The table itself changes only in Apply, once every pass has completed.
type AgentKernel struct {
	Field    *FieldGrid
	Agents   *components.AgentTable
	Params   components.Params
	Boundary Boundary
	Random   RandomSource

	intents []Intent
}

// Reserve sizes the intent buffer to the agent table. Call it before the
// first Move and whenever the table is replaced.
func (k *AgentKernel) Reserve() {
	n := k.Agents.Len()
	if cap(k.intents) < n {
		k.intents = make([]Intent, n)
	}
	k.intents = k.intents[:n]
}

// Intent returns the pending move of agent i.
func (k *AgentKernel) Intent(i int) Intent { return k.intents[i] }

// Move senses, steers and moves agents [i0, i1) reading buffer dst.
func (k *AgentKernel) Move(dst BufferID, step uint64, i0, i1 int) {
	for i := i0; i < i1; i++ {
		k.Update(dst, step, i)
	}
}

// Apply copies the intents of agents [i0, i1) into the table.
func (k *AgentKernel) Apply(i0, i1 int) {
	for i := i0; i < i1; i++ {
		a, in := k.Agents.At(i), &k.intents[i]
		a.PosX, a.PosY, a.Heading = in.PosX, in.PosY, in.Heading
	}
}

// Update senses, steers and computes the intent of a single agent.
func (k *AgentKernel) Update(dst BufferID, step uint64, i int) {
	a := k.Agents.At(i)
	s := Sense(k.Field, dst, a, k.Boundary)
	choice := ChooseTurn(s, a.TurnAngles)

	var jitter float32
	if k.Params.Wobbling != 0 && k.Random != nil {
		u := k.Random.Float32(step, uint32(i))
		jitter = (u - 0.5) * k.Params.Wobbling
	}
	heading := Steer(a.Heading, a.TurnAngles[choice], k.Params.TwistingAngle, jitter)

	sin, cos := math32.Sincos(heading)
	x := a.PosX + a.Speed*cos
	y := a.PosY + a.Speed*sin
	in := &k.intents[i]
	in.PosX, in.PosY, in.Heading = k.Boundary.Apply(x, y, heading, float32(k.Field.W), float32(k.Field.H))
}

// Deposit adds the per-agent trace for agents [i0, i1) into buffer dst, at
// the cells their intents move to.
func (k *AgentKernel) Deposit(dst BufferID, i0, i1 int) {
	amount := k.Params.PheromoneDeposit
	if amount == 0 {
		return
	}
	ceiling := k.Params.MaxPheromone
	for i := i0; i < i1; i++ {
		in := &k.intents[i]
		cx, cy := k.Boundary.Cell(in.PosX, in.PosY, k.Field.W, k.Field.H)
		k.Field.Deposit(dst, cx, cy, amount, ceiling)
	}
}

// Sense samples the field ahead of the agent along each sensor angle.
func Sense(f *FieldGrid, id BufferID, a *components.Agent, b Boundary) Sensors {
	var s Sensors
	radius := int(a.SensorSize)
	for k, off := range a.SensorAngles {
		sin, cos := math32.Sincos(a.Heading + off)
		sx := a.PosX + a.SensorLength*cos
		sy := a.PosY + a.SensorLength*sin
		s[k] = sampleBox(f, id, sx, sy, radius, b)
	}
	return s
}

// sampleBox averages the cells within radius of the cell nearest (x, y).
// Cells outside a non-wrapping field are skipped; a box entirely outside
// reads as zero.
func sampleBox(f *FieldGrid, id BufferID, x, y float32, radius int, b Boundary) float32 {
	cx := int(math32.Floor(x + 0.5))
	cy := int(math32.Floor(y + 0.5))
	buf := f.buffers[id]

	var sum float32
	n := 0
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			xx, yy, ok := b.Locate(cx+dx, cy+dy, f.W, f.H)
			if !ok {
				continue
			}
			sum += buf[yy*f.W+xx]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float32(n)
}

// ChooseTurn returns the index of the strongest sensor. Ties go to the
// smaller absolute turn, then to the lower index.
func ChooseTurn(s Sensors, turns [3]float32) int {
	best := 0
	for k := 1; k < len(s); k++ {
		switch {
		case s[k] > s[best]:
			best = k
		case s[k] == s[best] && math32.Abs(turns[k]) < math32.Abs(turns[best]):
			best = k
		}
	}
	return best
}

// Steer returns the new heading after applying a turn, the global twist and
// the wobble jitter.
func Steer(heading, turn, twist, jitter float32) float32 {
	return NormalizeAngle(heading + (turn + twist + jitter))
}

// NormalizeAngle wraps an angle to [-pi, pi]. Angles already in range are
// returned unchanged.
func NormalizeAngle(a float32) float32 {
	if a >= -math32.Pi && a <= math32.Pi {
		return a
	}
	return math32.Remainder(a, 2*math32.Pi)
}
