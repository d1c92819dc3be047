package windowstate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
)

// Default geometry used when nothing usable was persisted.
const (
	DefaultWidth  = 1000
	DefaultHeight = 700
)

// State is the persisted window placement.
type State struct {
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	X           int  `json:"x"`
	Y           int  `json:"y"`
	IsMaximized bool `json:"is_maximized"`
}

// Default returns the fallback geometry.
func Default() State {
	return State{Width: DefaultWidth, Height: DefaultHeight}
}

// Normalize replaces non-positive dimensions with the defaults.
func (s State) Normalize() State {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	return s
}

// Window is the live toplevel window whose geometry is persisted.
type Window interface {
	Size() (width, height int)
	Position() (x, y int)
	IsMaximized() bool
	Resize(width, height int) error
	Move(x, y int) error
	Maximize() error
}

// record mirrors State with optional fields so missing keys can default individually.
type record struct {
	Width       *int  `json:"width"`
	Height      *int  `json:"height"`
	X           *int  `json:"x"`
	Y           *int  `json:"y"`
	IsMaximized *bool `json:"is_maximized"`
}

// Store reads and writes window_state.json.
type Store struct {
	path   string
	logger *logging.Logger
}

// NewStore creates a store for the given state file
func NewStore(path string, logger *logging.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the state file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state. It reports false, after logging a warning,
// when the file is missing, empty or malformed. It never fails.
func (s *Store) Load() (State, bool) {
	state, err := s.read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("No window state saved yet", zap.String("path", s.path))
		} else {
			s.logger.Warn("Could not restore window state", zap.String("path", s.path), zap.Error(err))
		}
		return State{}, false
	}
	return state, true
}

// Initial returns the persisted state, or the default geometry.
func (s *Store) Initial() State {
	if state, ok := s.Load(); ok {
		return state
	}
	return Default()
}

func (s *Store) read() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, err
	}
	if len(data) == 0 {
		return State{}, errors.New("state file is empty")
	}

	var rec *record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return State{}, fmt.Errorf("failed to parse state: %w", err)
	}
	if rec == nil {
		return State{}, errors.New("state file holds no record")
	}

	state := Default()
	if rec.Width != nil {
		state.Width = *rec.Width
	}
	if rec.Height != nil {
		state.Height = *rec.Height
	}
	if rec.X != nil {
		state.X = *rec.X
	}
	if rec.Y != nil {
		state.Y = *rec.Y
	}
	if rec.IsMaximized != nil {
		state.IsMaximized = *rec.IsMaximized
	}
	return state.Normalize(), nil
}

// Save overwrites the state file and reports whether it was written.
// Failures are logged, never returned, so shutdown is not held up by
// persistence.
func (s *Store) Save(state State) bool {
	state = state.Normalize()
	if err := s.write(state); err != nil {
		s.logger.Warn("Failed to save window state", zap.String("path", s.path), zap.Error(err))
		return false
	}
	s.logger.Info("Window state saved",
		zap.Int("width", state.Width),
		zap.Int("height", state.Height),
		zap.Bool("maximized", state.IsMaximized),
	)
	return true
}

// write replaces the file through a rename so readers never see a partial record.
func (s *Store) write(state State) error {
	data, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".window_state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}

// Apply restores state onto the window. A maximized state ignores geometry.
// Errors from the window are logged; Apply never fails.
func (s *Store) Apply(state State, w Window) {
	if state.IsMaximized {
		if err := w.Maximize(); err != nil {
			s.logger.Warn("Failed to maximize window", zap.Error(err))
		}
		return
	}

	state = state.Normalize()
	if err := w.Resize(state.Width, state.Height); err != nil {
		s.logger.Warn("Failed to resize window", zap.Error(err))
	}
	if err := w.Move(state.X, state.Y); err != nil {
		s.logger.Warn("Failed to move window", zap.Error(err))
	}
}

// Capture reads the current geometry of the live window.
func Capture(w Window) State {
	width, height := w.Size()
	x, y := w.Position()
	return State{
		Width:       width,
		Height:      height,
		X:           x,
		Y:           y,
		IsMaximized: w.IsMaximized(),
	}.Normalize()
}
