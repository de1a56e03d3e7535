package bootdev

import (
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

// Device describes where the image handed to the next boot stage came from
// and where it now lives in memory.
type Device struct {
	Protocol string `yaml:"protocol"`
	Subtype  string `yaml:"subtype"`
	Path     string `yaml:"path"`
	Address  uint64 `yaml:"address"`
	Length   uint64 `yaml:"length"`
}

// Registry records the boot device of the most recent load.
type Registry interface {
	SetBootDevice(d Device)
}

// Memory keeps the last registered device in memory.
type Memory struct {
	mu  sync.Mutex
	dev *Device
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) SetBootDevice(d Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dev = &d
}

// Current returns the registered device, if any.
func (m *Memory) Current() (Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return Device{}, false
	}
	return *m.dev, true
}

// WriteYAML exports the registered device for the next boot stage.
func (m *Memory) WriteYAML(w io.Writer) error {
	d, ok := m.Current()
	if !ok {
		return fmt.Errorf("no boot device registered")
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("error encoding boot device: %v", err)
	}
	return nil
}
