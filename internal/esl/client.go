// Package esl speaks the switch's event-socket control protocol. The
// client maintains a single authenticated connection, reconnects with
// exponential backoff, and routes every command through a circuit
// breaker so a flapping switch degrades deploys instead of hanging
// them.
package esl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"call-router/internal/circuitbreaker"
	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
)

const (
	reconnectBase     = time.Second
	reconnectCap      = 60 * time.Second
	reconnectAttempts = 10

	// maxFrameBody bounds a single frame body. Even a full sofia
	// status dump stays well under this; anything larger means the
	// stream is corrupt.
	maxFrameBody = 8 << 20
)

// Dialer opens the raw transport. Overridable in tests.
type Dialer func(ctx context.Context, address string) (net.Conn, error)

// ClientConfig configures a control-channel client.
type ClientConfig struct {
	Host     string
	Port     int
	Password string
	// Timeout bounds each command round trip when the caller's
	// context carries no earlier deadline.
	Timeout time.Duration
	Dialer  Dialer
}

// Client is a reconnecting event-socket client. Safe for concurrent
// use; commands are serialized on the single connection.
type Client struct {
	config  ClientConfig
	logger  logging.Logger
	breaker *circuitbreaker.Breaker

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewClient creates a client. No connection is made until the first
// command or an explicit Connect.
func NewClient(config ClientConfig, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Dialer == nil {
		dialer := &net.Dialer{}
		config.Dialer = func(ctx context.Context, address string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", address)
		}
	}
	return &Client{
		config:  config,
		logger:  logger,
		breaker: circuitbreaker.New("switch-control", circuitbreaker.SwitchConfig, logger),
	}
}

// Connect establishes and authenticates the control connection,
// retrying with exponential backoff until the context is cancelled or
// the attempt budget is spent.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < reconnectAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			c.logger.Warn("Switch connection failed, retrying",
				logging.Int("attempt", attempt),
				logging.Duration("delay", delay),
				logging.Err(lastErr))
			select {
			case <-ctx.Done():
				return errors.ControlChannelError("connect cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}

		if err := c.dialAndAuth(ctx); err != nil {
			lastErr = err
			continue
		}

		c.logger.Info("Switch control channel connected",
			logging.String("host", c.config.Host),
			logging.Int("port", c.config.Port))
		return nil
	}
	return errors.ControlChannelError(
		fmt.Sprintf("switch unreachable after %d attempts", reconnectAttempts), lastErr)
}

func (c *Client) dialAndAuth(ctx context.Context) error {
	address := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
	conn, err := c.config.Dialer(ctx, address)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(conn)

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	headers, _, err := readFrame(reader)
	if err != nil {
		conn.Close()
		return fmt.Errorf("reading greeting: %w", err)
	}
	if headers["Content-Type"] != "auth/request" {
		conn.Close()
		return fmt.Errorf("unexpected greeting content type %q", headers["Content-Type"])
	}

	if _, err := fmt.Fprintf(conn, "auth %s\n\n", c.config.Password); err != nil {
		conn.Close()
		return fmt.Errorf("sending auth: %w", err)
	}
	headers, _, err = readFrame(reader)
	if err != nil {
		conn.Close()
		return fmt.Errorf("reading auth reply: %w", err)
	}
	if reply := headers["Reply-Text"]; !strings.HasPrefix(reply, "+OK") {
		conn.Close()
		return fmt.Errorf("authentication rejected: %s", reply)
	}

	conn.SetDeadline(time.Time{})
	c.conn = conn
	c.reader = reader
	return nil
}

// Command sends an api command and returns the response body. A
// transport failure drops the connection so the next command
// reconnects, and repeated failures open the circuit.
func (c *Client) Command(ctx context.Context, command string) (string, error) {
	if command == "" {
		return "", errors.ValidationError("command is required")
	}

	var body string
	err := c.breaker.Execute(ctx, func() error {
		var err error
		body, err = c.roundTrip(ctx, command)
		return err
	})
	return body, err
}

func (c *Client) roundTrip(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return "", err
	}

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if _, err := fmt.Fprintf(c.conn, "api %s\n\n", command); err != nil {
		c.dropLocked()
		return "", errors.ControlChannelError("failed to send command", err).
			WithContext("command", command)
	}

	headers, payload, err := readFrame(c.reader)
	if err != nil {
		c.dropLocked()
		return "", errors.ControlChannelError("failed to read command response", err).
			WithContext("command", command)
	}
	if ct := headers["Content-Type"]; ct != "api/response" {
		c.dropLocked()
		return "", errors.ControlChannelError(
			fmt.Sprintf("unexpected response content type %q", ct), nil).
			WithContext("command", command)
	}

	body := strings.TrimSpace(payload)
	if strings.HasPrefix(body, "-ERR") {
		return "", errors.ControlChannelError("switch rejected command: "+body, nil).
			WithContext("command", command)
	}
	return body, nil
}

// ReloadXML reloads the switch's XML configuration.
func (c *Client) ReloadXML(ctx context.Context) error {
	_, err := c.Command(ctx, "reloadxml")
	return err
}

// ReloadACL reloads the switch's access control lists.
func (c *Client) ReloadACL(ctx context.Context) error {
	_, err := c.Command(ctx, "reloadacl")
	return err
}

// RescanProfile picks up gateway changes on a SIP profile without
// dropping its active calls.
func (c *Client) RescanProfile(ctx context.Context, profile string) error {
	if profile == "" {
		return errors.ValidationError("profile is required")
	}
	_, err := c.Command(ctx, "sofia profile "+profile+" rescan")
	return err
}

// Status returns the switch's SIP stack status output.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Command(ctx, "sofia status")
}

// Verify confirms the switch is responsive after a reload. A deploy
// is only reported successful once this passes.
func (c *Client) Verify(ctx context.Context) error {
	body, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if body == "" {
		return errors.ControlChannelError("switch returned empty status", nil)
	}
	return nil
}

// BreakerStats exposes the control-channel circuit state for health
// reporting.
func (c *Client) BreakerStats() circuitbreaker.Stats {
	return c.breaker.Stats()
}

// Close drops the control connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

func backoff(attempt int) time.Duration {
	delay := reconnectBase << uint(attempt-1)
	if delay > reconnectCap || delay <= 0 {
		return reconnectCap
	}
	return delay
}

// readFrame reads one event-socket frame: colon-separated headers up
// to a blank line, then a body of exactly Content-Length bytes.
func readFrame(reader *bufio.Reader) (map[string]string, string, error) {
	headers := make(map[string]string)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	var body string
	if raw, ok := headers["Content-Length"]; ok {
		length, err := strconv.Atoi(raw)
		if err != nil || length < 0 || length > maxFrameBody {
			return nil, "", fmt.Errorf("bad Content-Length %q", raw)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(reader, buf); err != nil {
			return nil, "", err
		}
		body = string(buf)
	}
	return headers, body, nil
}
