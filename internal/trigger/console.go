package trigger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"PriceTicker/internal/model"
)

// Console reads commands from a line-oriented reader:
//
//	coin          next coin
//	fiat          next fiat currency
//	refresh       fetch now
//	BASE/QUOTE    select a pair, e.g. BTC/EUR
type Console struct {
	In       io.Reader
	Selector *Selector
	Refresh  func()
}

// Run processes commands until the reader is exhausted or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case line := <-lines:
			if err := c.Handle(line); err != nil {
				log.Warn().Err(err).Str("input", line).Msg("console command")
			}
		}
	}
}

// Handle executes a single command line.
func (c *Console) Handle(line string) error {
	cmd := strings.TrimSpace(line)
	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "coin", "c":
		c.Selector.NextCoin()
	case "fiat", "f":
		c.Selector.NextFiat()
	case "refresh", "r":
		if c.Refresh != nil {
			c.Refresh()
		}
	default:
		base, quote, ok := strings.Cut(cmd, "/")
		if !ok {
			return fmt.Errorf("unknown command %q", cmd)
		}
		q, err := model.NewPriceQuery(base, quote)
		if err != nil {
			return err
		}
		c.Selector.Select(q)
	}
	return nil
}
