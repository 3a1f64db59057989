// Package transport moves EDI documents across the trading partner's FTP
// drop. It discovers new inbound files, downloads them, uploads 997
// acknowledgments, and marks files as processed or rejected by renaming
// them in place.
//
// The rename markers are the authoritative processed state: a file whose
// name starts with "_" is never picked up again, on any host, after any
// crash. "_err_" marks a dead-lettered file that failed parsing or
// validation and needs human attention.
package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// ProcessedPrefix marks a remote file as fully processed.
const ProcessedPrefix = "_"

// RejectedPrefix marks a remote file as dead-lettered.
const RejectedPrefix = "_err_"

// AckPrefix names uploaded 997 acknowledgment files.
const AckPrefix = "997_"

// DefaultTimeout is the default dial and command timeout.
const DefaultTimeout = 30 * time.Second

// ErrNotConnected is returned when an operation runs before Connect.
var ErrNotConnected = errors.New("not connected")

// Error wraps a failed transport operation with the file it concerned.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config configures the FTP transport.
type Config struct {
	// Host is the FTP server hostname (required).
	Host string
	// Port is the FTP control port (default 21).
	Port int
	// Username and Password authenticate the session.
	Username string
	Password string
	// Directory is the inbound drop directory for 850 files.
	Directory string
	// AckDirectory receives uploaded 997 acknowledgments.
	AckDirectory string
	// Timeout bounds dialing and individual commands.
	Timeout time.Duration
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 21
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// Conn is the subset of an FTP session the transport uses. Satisfied by
// *ftp.ServerConn through the serverConn adapter; tests substitute fakes.
type Conn interface {
	ChangeDir(path string) error
	List(path string) ([]*ftp.Entry, error)
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	Rename(from, to string) error
	Quit() error
}

// DialFunc establishes an authenticated session positioned at the drop
// directory.
type DialFunc func(cfg Config) (Conn, error)

type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

// Dial is the production DialFunc: connect, login, change to the drop
// directory.
func Dial(cfg Config) (Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := ftp.Dial(cfg.addr(), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, &Error{Op: "dial", Err: err}
	}
	if err := conn.Login(cfg.Username, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, &Error{Op: "login", Err: err}
	}
	if cfg.Directory != "" {
		if err := conn.ChangeDir(cfg.Directory); err != nil {
			_ = conn.Quit()
			return nil, &Error{Op: "chdir", Name: cfg.Directory, Err: err}
		}
	}
	return serverConn{conn}, nil
}

// Client is a reconnectable FTP transport.
//
// Not safe for concurrent use; the poller drives it from one goroutine.
type Client struct {
	config Config
	dial   DialFunc
	conn   Conn
}

// New creates a disconnected client. Call Connect before use.
func New(cfg Config) (*Client, error) {
	return NewWithDialer(cfg, Dial)
}

// NewWithDialer creates a client with a custom dialer. Tests use this to
// substitute an in-memory connection.
func NewWithDialer(cfg Config, dial DialFunc) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("transport requires a host")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{config: cfg, dial: dial}, nil
}

// Connect establishes the session. Idempotent when already connected.
func (c *Client) Connect() error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.dial(c.config)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Reconnect drops the current session and dials a fresh one.
func (c *Client) Reconnect() error {
	if c.conn != nil {
		_ = c.conn.Quit()
		c.conn = nil
	}
	return c.Connect()
}

// ListNew returns the names of unprocessed files in the drop directory,
// sorted for deterministic processing order. Marker-prefixed names,
// dotfiles, and non-regular entries are skipped.
func (c *Client) ListNew() ([]string, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	entries, err := c.conn.List(".")
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		if strings.HasPrefix(e.Name, ProcessedPrefix) || strings.HasPrefix(e.Name, ".") {
			continue
		}
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Download retrieves one file's contents. The payload is spooled through
// a temp file so a connection drop mid-transfer never yields a truncated
// document to the parser.
func (c *Client) Download(name string) (string, error) {
	if c.conn == nil {
		return "", ErrNotConnected
	}

	resp, err := c.conn.Retr(name)
	if err != nil {
		return "", &Error{Op: "retr", Name: name, Err: err}
	}

	tmp, err := os.CreateTemp("", "drayage-*.edi")
	if err != nil {
		_ = resp.Close()
		return "", &Error{Op: "spool", Name: name, Err: err}
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, resp); err != nil {
		_ = resp.Close()
		return "", &Error{Op: "retr", Name: name, Err: err}
	}
	if err := resp.Close(); err != nil {
		return "", &Error{Op: "retr", Name: name, Err: err}
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", &Error{Op: "spool", Name: name, Err: err}
	}
	return string(data), nil
}

// MarkProcessed renames the file with the processed prefix so no poller
// picks it up again.
func (c *Client) MarkProcessed(name string) error {
	return c.rename(name, ProcessedPrefix+name)
}

// MarkRejected renames the file with the dead-letter prefix. The file
// stays on the server for operator inspection and is never retried.
func (c *Client) MarkRejected(name string) error {
	return c.rename(name, RejectedPrefix+name)
}

func (c *Client) rename(from, to string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.Rename(from, to); err != nil {
		return &Error{Op: "rename", Name: from, Err: err}
	}
	return nil
}

// UploadAck stores a 997 acknowledgment for the named inbound file in the
// acknowledgment directory.
func (c *Client) UploadAck(name string, ack []byte) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	target := AckPrefix + name
	if c.config.AckDirectory != "" {
		target = path.Join(c.config.AckDirectory, target)
	}
	if err := c.conn.Stor(target, strings.NewReader(string(ack))); err != nil {
		return &Error{Op: "stor", Name: target, Err: err}
	}
	return nil
}

// Close terminates the session.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	return err
}
