package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	recordFile = "player_config.json"
	deviceFile = "device_info.json"
)

// Record is the persisted identity and presentation metadata for this
// player. PlayerID and Token stay empty until registration succeeds.
type Record struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	PlayerID string `json:"playerId,omitempty"`
	Token    string `json:"token,omitempty"`
}

// Registered reports whether the record carries usable credentials.
func (r *Record) Registered() bool {
	return r != nil && strings.TrimSpace(r.PlayerID) != "" && strings.TrimSpace(r.Token) != ""
}

// ClearCredentials drops the player id and token, forcing re-registration
// on the next connect cycle.
func (r *Record) ClearCredentials() {
	r.PlayerID = ""
	r.Token = ""
}

// Store reads and writes identity state under the data directory. Absence
// of either file is a valid cold-start state.
type Store struct {
	dataDir string
}

// NewStore creates an identity store rooted in the given data directory.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Load reads the persisted identity record. When no record exists the
// provided defaults seed a fresh, unregistered one.
func (s *Store) Load(defaultName, defaultLocation string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, recordFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Record{Name: defaultName, Location: defaultLocation}, nil
		}
		return nil, fmt.Errorf("read identity record: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode identity record: %w", err)
	}
	if strings.TrimSpace(record.Name) == "" {
		record.Name = defaultName
	}
	if strings.TrimSpace(record.Location) == "" {
		record.Location = defaultLocation
	}
	return &record, nil
}

// Save writes the identity record atomically.
func (s *Store) Save(record *Record) error {
	if record == nil {
		return errors.New("nil identity record")
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identity record: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	path := filepath.Join(s.dataDir, recordFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write identity record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace identity record: %w", err)
	}
	return nil
}

// Reset removes the persisted identity record.
func (s *Store) Reset() error {
	err := os.Remove(filepath.Join(s.dataDir, recordFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove identity record: %w", err)
	}
	return nil
}

// Device describes the hardware this player runs on. It is regenerated at
// every startup and sent with registration so the CMS can show device
// details.
type Device struct {
	ScreenWidth  int    `json:"screen_width"`
	ScreenHeight int    `json:"screen_height"`
	Orientation  string `json:"orientation"`
	DeviceType   string `json:"device_type"`
	OS           string `json:"os"`
	Hostname     string `json:"hostname"`
	Architecture string `json:"architecture"`
}

// DescribeDevice builds the device descriptor from the configured screen
// geometry and the runtime environment, and persists it for inspection.
func (s *Store) DescribeDevice(screenWidth, screenHeight int) (*Device, error) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	orientation := "landscape"
	if screenHeight > screenWidth {
		orientation = "portrait"
	}
	device := &Device{
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		Orientation:  orientation,
		DeviceType:   "display",
		OS:           runtime.GOOS,
		Hostname:     hostname,
		Architecture: runtime.GOARCH,
	}

	data, err := json.MarshalIndent(device, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode device descriptor: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, deviceFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write device descriptor: %w", err)
	}
	return device, nil
}
