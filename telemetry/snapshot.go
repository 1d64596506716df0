package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/slime/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the front field buffer and agent table at one step.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    uint64 `json:"seed"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Params in SimulationParameters order.
	Params [components.ParamCount]float32 `json:"params"`

	Step uint64 `json:"step"`

	Field []float32 `json:"field"`
	// Agents is the packed little-endian agent table.
	Agents []byte `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// DecodeAgents unpacks the agent table.
func (s *Snapshot) DecodeAgents() ([]components.Agent, error) {
	return components.DecodeAgents(s.Agents)
}

// Validate checks that the payload sizes match the header.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	if len(s.Field) != s.Width*s.Height {
		return fmt.Errorf("snapshot field has %d cells, want %dx%d", len(s.Field), s.Width, s.Height)
	}
	if len(s.Agents)%components.AgentBytes != 0 {
		return fmt.Errorf("snapshot agent table is %d bytes, not a multiple of %d", len(s.Agents), components.AgentBytes)
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Step, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads and validates a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
