package display

import (
	"github.com/rs/zerolog/log"

	"PriceTicker/internal/gpio"
	"PriceTicker/internal/model"
)

// LEDs drives the direction LEDs: positive change lights Pos, negative
// lights Neg, errors light Info. At most one LED is on. Loading events
// leave the LEDs as they are.
type LEDs struct {
	Pos  gpio.OutputPin
	Neg  gpio.OutputPin
	Info gpio.OutputPin
}

func (l *LEDs) ShowLoading(string, string) {}

func (l *LEDs) ShowPrice(_ model.PriceQuery, s model.PriceSample) {
	if s.PercentChange24h < 0 {
		l.only(l.Neg)
	} else {
		l.only(l.Pos)
	}
}

func (l *LEDs) ShowError(string, string) { l.only(l.Info) }

func (l *LEDs) only(on gpio.OutputPin) {
	for _, p := range []gpio.OutputPin{l.Pos, l.Neg, l.Info} {
		if p == nil {
			continue
		}
		if err := p.Set(p == on); err != nil {
			log.Warn().Err(err).Msg("set led")
		}
	}
}
