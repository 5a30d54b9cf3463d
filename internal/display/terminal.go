package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"PriceTicker/internal/model"
)

const frameWidth = 21 // 128px at 6px per glyph

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Terminal renders each event as a small text frame, mimicking the
// 128x32 OLED layout.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	frame int
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, frame: 2}
}

func (t *Terminal) ShowLoading(stage, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stage == model.StageSplash {
		t.draw("", center("** "+splashName(detail)+" **"), "")
		return
	}
	spin := spinnerFrames[t.frame]
	t.frame = (t.frame + 1) % len(spinnerFrames)
	t.draw(stage, detail, pad("", frameWidth-1)+spin)
}

func (t *Terminal) ShowPrice(q model.PriceQuery, s model.PriceSample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draw(
		q.Base+" => "+q.Quote,
		CurrencySymbol(q.Quote)+" "+FormatPrice(q.Quote, s),
		fmt.Sprintf("Change: %.2f %%", s.ChangePercent()),
	)
}

func (t *Terminal) ShowError(category, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draw(category, ShortMessage(message), "")
}

// ShortMessage shortens messages that do not fit the small display.
func ShortMessage(message string) string {
	if message == "Price pair not available" {
		return "Pair N/A"
	}
	return message
}

func (t *Terminal) draw(lines ...string) {
	var b strings.Builder
	border := "+" + strings.Repeat("-", frameWidth) + "+\n"
	b.WriteString(border)
	for _, l := range lines {
		b.WriteString("|" + pad(l, frameWidth) + "|\n")
	}
	b.WriteString(border)
	io.WriteString(t.out, b.String())
}

// pad truncates or right-pads s to n runes.
func pad(s string, n int) string {
	c := utf8.RuneCountInString(s)
	if c > n {
		return string([]rune(s)[:n])
	}
	return s + strings.Repeat(" ", n-c)
}

func center(s string) string {
	c := utf8.RuneCountInString(s)
	if c >= frameWidth {
		return s
	}
	return strings.Repeat(" ", (frameWidth-c)/2) + s
}
