package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"PriceTicker/internal/clock"
	"PriceTicker/internal/model"
)

const (
	DefaultHost    = "api.gemini.com"
	DefaultPort    = 443
	DefaultTimeout = 5 * time.Second

	userAgent       = "PriceTicker/1.0"
	pairUnavailable = "Price pair not available"
	pollInterval    = 50 * time.Millisecond
)

// Dialer opens the encrypted connection to the price API.
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// GeminiFetcher implements Fetcher by speaking HTTP/1.1 directly over a
// TLS connection to the Gemini pricefeed endpoint. One connection per call.
type GeminiFetcher struct {
	Host         string
	Port         int
	Timeout      time.Duration // receive deadline, measured from send completion
	PollInterval time.Duration
	Dialer       Dialer
	Clock        clock.Clock
}

// NewGeminiFetcher creates a fetcher using the given dialer.
func NewGeminiFetcher(host string, port int, timeout time.Duration, dialer Dialer) *GeminiFetcher {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiFetcher{
		Host:         host,
		Port:         port,
		Timeout:      timeout,
		PollInterval: pollInterval,
		Dialer:       dialer,
		Clock:        clock.NewMonotonic(),
	}
}

func (f *GeminiFetcher) Name() string { return "gemini" }

// FetchPrice runs one request/response exchange. The connection is closed
// on every return path and all failures come back as *model.FetchError.
func (f *GeminiFetcher) FetchPrice(ctx context.Context, q model.PriceQuery, onStage StageFunc) (model.PriceSample, error) {
	addr := net.JoinHostPort(f.Host, strconv.Itoa(f.Port))
	log.Debug().Str("addr", addr).Str("pair", q.Pair()).Msg("connecting")

	conn, err := f.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("connection failed")
		return model.PriceSample{}, model.Failf(model.ConnectionFailed, "connect %s: %v", addr, err)
	}
	defer conn.Close()
	onStage.emit("Connected", "Getting data...")

	if err := conn.SetWriteDeadline(time.Now().Add(f.Timeout)); err != nil {
		return model.PriceSample{}, model.Failf(model.ConnectionFailed, "set write deadline: %v", err)
	}
	if _, err := io.WriteString(conn, f.request(q)); err != nil {
		return model.PriceSample{}, model.Failf(model.ConnectionFailed, "send request: %v", err)
	}
	onStage.emit("Processing", "Please wait...")

	br, ferr := f.awaitResponse(ctx, conn)
	if ferr != nil {
		log.Warn().Err(ferr).Str("pair", q.Pair()).Msg("await response failed")
		return model.PriceSample{}, ferr
	}

	statusLine, _ := br.ReadString('\n')
	code := parseStatusLine(strings.TrimSpace(statusLine))
	if code != 200 {
		log.Warn().Int("status", code).Str("pair", q.Pair()).Msg("http error")
		return model.PriceSample{}, &model.FetchError{Kind: model.HTTPStatus, StatusCode: code, Detail: pairUnavailable}
	}

	skipHeaders(br)
	body := readBody(br)
	log.Debug().Str("body", body).Msg("raw api response")

	return Extract([]byte(body))
}

func (f *GeminiFetcher) request(q model.PriceQuery) string {
	return "GET /v1/pricefeed/" + q.Pair() + " HTTP/1.1\r\n" +
		"Host: " + f.Host + "\r\n" +
		"User-Agent: " + userAgent + "\r\n" +
		"Connection: close\r\n\r\n"
}

// awaitResponse polls for the first response byte in short read-deadline
// slices until the monotonic deadline passes. The remainder of the
// exchange is then bounded by one more timeout window.
func (f *GeminiFetcher) awaitResponse(ctx context.Context, conn net.Conn) (*bufio.Reader, *model.FetchError) {
	br := bufio.NewReader(conn)
	start := f.Clock.Millis()
	poll := f.PollInterval
	if poll <= 0 {
		poll = pollInterval
	}

	for {
		if err := conn.SetReadDeadline(time.Now().Add(poll)); err != nil {
			return nil, model.Failf(model.ConnectionFailed, "set read deadline: %v", err)
		}
		_, err := br.Peek(1)
		if err == nil {
			break
		}
		if !isTimeout(err) {
			return nil, model.Failf(model.ConnectionFailed, "read response: %v", err)
		}
		if ctx.Err() != nil {
			return nil, model.Failf(model.ConnectionFailed, "read response: %v", ctx.Err())
		}
		if clock.Elapsed(f.Clock.Millis(), start, f.Timeout) {
			return nil, model.Failf(model.Timeout, "no response within %s", f.Timeout)
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(f.Timeout)); err != nil {
		return nil, model.Failf(model.ConnectionFailed, "set read deadline: %v", err)
	}
	return br, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// parseStatusLine tokenises "HTTP-version SP status-code SP reason-phrase"
// and returns the status code, or 0 when the line is not a status line.
func parseStatusLine(line string) int {
	version, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(version, "HTTP/") {
		return 0
	}
	code, _, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if len(code) != 3 {
		return 0
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 100 {
		return 0
	}
	return n
}

func skipHeaders(br *bufio.Reader) {
	for {
		line, err := br.ReadString('\n')
		if strings.TrimSpace(line) == "" || err != nil {
			return
		}
	}
}

// readBody returns the first non-empty line after the headers. Chunked
// and multi-line bodies are not supported.
func readBody(br *bufio.Reader) string {
	for {
		line, err := br.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
		if err != nil {
			return ""
		}
	}
}

// String describes the endpoint for startup logs.
func (f *GeminiFetcher) String() string {
	return fmt.Sprintf("gemini(%s:%d, timeout=%s)", f.Host, f.Port, f.Timeout)
}
