// Package imapprobe verifies custom IMAP credentials before an account is
// linked on the backend.
package imapprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// DefaultPort is the IMAPS port offered in the add-account form.
const DefaultPort = 993

// DefaultTimeout bounds a probe when ctx has no deadline.
const DefaultTimeout = 15 * time.Second

// ErrAuth is returned when the server rejects the credentials.
var ErrAuth = errors.New("imap authentication failed")

// Settings are the connection parameters entered by the user.
type Settings struct {
	Host     string
	Port     int
	Username string
	Password string

	// StartTLS upgrades a plain connection instead of dialing TLS.
	StartTLS bool

	// TLSConfig overrides the default TLS configuration (used by tests).
	TLSConfig *tls.Config
}

// Addr returns host:port, falling back to DefaultPort.
func (s Settings) Addr() string {
	port := s.Port
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(strings.TrimSpace(s.Host), strconv.Itoa(port))
}

// Validate reports missing fields.
func (s Settings) Validate() error {
	switch {
	case strings.TrimSpace(s.Host) == "":
		return errors.New("imap host is required")
	case s.Port < 0 || s.Port > 65535:
		return fmt.Errorf("invalid imap port %d", s.Port)
	case s.Username == "":
		return errors.New("imap username is required")
	case s.Password == "":
		return errors.New("imap password is required")
	}
	return nil
}

// Result summarizes what the probe saw after logging in.
type Result struct {
	Mailboxes     int
	InboxMessages uint32
}

// Prober checks IMAP credentials.
type Prober struct {
	timeout time.Duration
}

// New creates a prober. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{timeout: timeout}
}

// Probe connects, logs in, lists mailboxes and selects INBOX read-only.
// The connection is always closed before returning.
func (p *Prober) Probe(ctx context.Context, s Settings) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := dial(ctx, s)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	// Unblock pending commands when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(s.Username, s.Password).Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("logging in to %s: %w", s.Addr(), ctx.Err())
		}
		return nil, fmt.Errorf("%w for %s: %v", ErrAuth, s.Username, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	mailboxes, err := client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	inbox, err := client.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	return &Result{
		Mailboxes:     len(mailboxes),
		InboxMessages: inbox.NumMessages,
	}, nil
}

func dial(ctx context.Context, s Settings) (*imapclient.Client, error) {
	addr := s.Addr()
	opts := &imapclient.Options{TLSConfig: s.TLSConfig}

	if s.StartTLS {
		client, err := imapclient.DialStartTLS(addr, opts)
		if err != nil {
			return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
		}
		return client, nil
	}

	cfg := s.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{ServerName: strings.TrimSpace(s.Host)}
	}
	dialer := &tls.Dialer{NetDialer: &net.Dialer{}, Config: cfg}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	client := imapclient.New(conn, opts)
	if err := client.WaitGreeting(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("waiting for IMAP greeting from %s: %w", addr, err)
	}
	return client, nil
}
