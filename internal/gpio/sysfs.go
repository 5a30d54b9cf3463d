// Package gpio reads and writes pins through sysfs value files
// (/sys/class/gpio/gpioN/value). Pins must already be exported.
package gpio

import (
	"bytes"
	"fmt"
	"os"
)

// OutputPin drives a digital output.
type OutputPin interface {
	Set(high bool) error
}

// InputPin samples a digital input.
type InputPin interface {
	Read() (high bool, err error)
}

// SysfsPin is a pin backed by a sysfs value file.
type SysfsPin struct {
	Path      string
	ActiveLow bool // invert logical level, e.g. the onboard LED
}

func NewSysfsPin(path string, activeLow bool) *SysfsPin {
	return &SysfsPin{Path: path, ActiveLow: activeLow}
}

func (p *SysfsPin) Set(high bool) error {
	v := []byte("0")
	if high != p.ActiveLow {
		v = []byte("1")
	}
	if err := os.WriteFile(p.Path, v, 0644); err != nil {
		return fmt.Errorf("write %s: %w", p.Path, err)
	}
	return nil
}

func (p *SysfsPin) Read() (bool, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", p.Path, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false, fmt.Errorf("read %s: empty value", p.Path)
	}
	return (data[0] == '1') != p.ActiveLow, nil
}
