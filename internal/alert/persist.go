package alert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ashita-ai/mihari/internal/model"
)

// rulesFile is the snapshot filename inside the state directory.
const rulesFile = "alert_rules.json"

// rulesSnapshot is the on-disk format: a direct field-for-field dump of the
// rule structures, enums as lowercase strings.
type rulesSnapshot struct {
	SavedAt time.Time         `json:"saved_at"`
	Rules   []model.AlertRule `json:"rules"`
}

// SaveRules writes the current rule set to <stateDir>/alert_rules.json.
// The write is atomic (temp file + rename) so a crash mid-write cannot
// corrupt the previous snapshot.
func (m *Manager) SaveRules(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return fmt.Errorf("alert: create state dir: %w", err)
	}

	snap := rulesSnapshot{
		SavedAt: m.now().UTC(),
		Rules:   m.Rules(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("alert: marshal rules: %w", err)
	}

	path := filepath.Join(stateDir, rulesFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("alert: write rules snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("alert: rename rules snapshot: %w", err)
	}
	return nil
}

// LoadRules installs persisted rule overrides from the state directory.
// A missing snapshot is not an error (first run). Invalid rules inside the
// snapshot are skipped with a warning; valid ones replace defaults by id.
// Returns the number of rules installed.
func (m *Manager) LoadRules(stateDir string) (int, error) {
	path := filepath.Join(stateDir, rulesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("alert: read rules snapshot: %w", err)
	}

	var snap rulesSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("alert: decode rules snapshot: %w", err)
	}

	installed := 0
	for _, r := range snap.Rules {
		if m.RegisterRule(r) {
			installed++
		}
	}
	return installed, nil
}
