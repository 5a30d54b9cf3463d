package trigger

import (
	"time"

	"github.com/rs/zerolog/log"

	"PriceTicker/internal/clock"
	"PriceTicker/internal/gpio"
)

const (
	DebounceDelay     = 50 * time.Millisecond
	LongPressDuration = 1000 * time.Millisecond
)

// Button debounces an active-low push button and reports short and long
// presses on release. Poll it from the main loop.
type Button struct {
	Pin     gpio.InputPin
	OnShort func()
	OnLong  func()

	lastReading  bool // pressed
	pressed      bool
	pressing     bool
	lastDebounce uint32
	pressStart   uint32
}

func NewButton(pin gpio.InputPin, onShort, onLong func()) *Button {
	return &Button{Pin: pin, OnShort: onShort, OnLong: onLong}
}

// Poll samples the pin at now (monotonic milliseconds).
func (b *Button) Poll(now uint32) {
	high, err := b.Pin.Read()
	if err != nil {
		log.Debug().Err(err).Msg("read button")
		return
	}
	b.Sample(now, !high)
}

// Sample feeds one reading, pressed or not, into the debouncer.
func (b *Button) Sample(now uint32, pressed bool) {
	if pressed != b.lastReading {
		b.lastDebounce = now
	}
	b.lastReading = pressed

	if clock.Since(now, b.lastDebounce) <= uint32(DebounceDelay.Milliseconds()) {
		return
	}
	if pressed == b.pressed {
		return
	}
	b.pressed = pressed

	if pressed {
		b.pressStart = now
		b.pressing = true
		return
	}
	if !b.pressing {
		return
	}
	b.pressing = false
	if clock.Elapsed(now, b.pressStart, LongPressDuration) {
		if b.OnLong != nil {
			b.OnLong()
		}
	} else if b.OnShort != nil {
		b.OnShort()
	}
}
