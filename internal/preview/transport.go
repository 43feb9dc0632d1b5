package preview

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Transport checks whether a camera's direct stream endpoint is usable.
// Implementations must respect the context deadline.
type Transport interface {
	Probe(ctx context.Context, streamURL string) error
}

// rtspTransport performs a minimal RTSP OPTIONS handshake over TCP. A
// parseable RTSP/1.0 response of any status counts as reachable; the
// point is only to learn whether something speaks RTSP at the address.
type rtspTransport struct {
	timeout time.Duration
	dialer  net.Dialer
}

// NewRTSPTransport builds the default stream prober.
func NewRTSPTransport(timeout time.Duration) Transport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &rtspTransport{timeout: timeout}
}

func (t *rtspTransport) Probe(ctx context.Context, streamURL string) error {
	target, err := url.Parse(streamURL)
	if err != nil {
		return fmt.Errorf("parse stream url: %w", err)
	}
	if target.Scheme != "rtsp" {
		return fmt.Errorf("unsupported stream scheme %q", target.Scheme)
	}
	host := target.Host
	if target.Port() == "" {
		host = net.JoinHostPort(target.Hostname(), "554")
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	conn, err := t.dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("dial stream endpoint: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set probe deadline: %w", err)
	}

	request := fmt.Sprintf("OPTIONS %s RTSP/1.0\r\nCSeq: 1\r\nUser-Agent: Vigil\r\n\r\n", streamURL)
	if _, err := conn.Write([]byte(request)); err != nil {
		return fmt.Errorf("send options: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read options response: %w", err)
	}
	if !strings.HasPrefix(line, "RTSP/") {
		return fmt.Errorf("endpoint did not speak rtsp: %q", strings.TrimSpace(line))
	}
	return nil
}
