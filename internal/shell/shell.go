// Package shell opens one persistent authenticated session to a target
// host and runs probe commands over it, returning the stdout/stderr/exit
// three-tuple every caller in internal/executor needs.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	scp "github.com/bramvdbogaerde/go-scp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/iiicsti/scaaudit/internal/oscmd"
)

// Config describes a target host and how to authenticate to it.
type Config struct {
	Host string
	Port int
	User string

	// Password authenticates with a password, used directly and also for
	// sudo -S elevation on Linux targets.
	Password string

	// KeyPath, if set, authenticates with a private key instead of a
	// password. Password is still carried for elevation even when key
	// auth is used to connect.
	KeyPath string

	// KnownHostsPath, if empty, host key verification is skipped — only
	// acceptable against hosts reachable solely over a trusted private
	// network, never by default in a shipped binary.
	KnownHostsPath string

	// DialTimeout bounds the initial handshake.
	DialTimeout time.Duration
}

// Client is one long-lived session to a target host, bound for the
// lifetime of a single policy run.
type Client struct {
	cfg    Config
	client *ssh.Client

	// HomeDir is fetched once after Connect and used to expand a leading
	// "~" in rule targets against the remote filesystem.
	HomeDir string
}

var sudoPromptLine = regexp.MustCompile(`\[sudo\] password for .+?: ?`)

// New returns a Client for cfg. Connect must be called before Exec.
func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Connect establishes the authenticated session. It fails fast on
// authentication or network errors so the caller can treat them as
// fatal-to-run.
func (c *Client) Connect(ctx context.Context) error {
	auth, err := c.authMethods()
	if err != nil {
		return fmt.Errorf("shell: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if c.cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(c.cfg.KnownHostsPath)
		if err != nil {
			return fmt.Errorf("shell: loading known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	clientConfig := &ssh.ClientConfig{
		User:            c.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.dialTimeout(),
	}

	addr := net.JoinHostPort(c.cfg.Host, portOrDefault(c.cfg.Port))

	dialer := net.Dialer{Timeout: c.dialTimeout()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("shell: dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("shell: handshake with %s as %s: %w", addr, c.cfg.User, err)
	}

	c.client = ssh.NewClient(sshConn, chans, reqs)

	home, err := c.Exec(ctx, "pwd")
	if err == nil {
		c.HomeDir = strings.TrimSpace(home.Stdout)
	}
	return nil
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	if c.cfg.KeyPath != "" {
		key, err := os.ReadFile(filepath.Clean(c.cfg.KeyPath))
		if err != nil {
			return nil, fmt.Errorf("reading private key %q: %w", c.cfg.KeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing private key %q: %w", c.cfg.KeyPath, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if c.cfg.Password == "" {
		return nil, fmt.Errorf("no password or key path configured")
	}
	return []ssh.AuthMethod{ssh.Password(c.cfg.Password)}, nil
}

func (c *Client) dialTimeout() time.Duration {
	if c.cfg.DialTimeout > 0 {
		return c.cfg.DialTimeout
	}
	return 15 * time.Second
}

func portOrDefault(p int) string {
	if p == 0 {
		return "22"
	}
	return fmt.Sprintf("%d", p)
}

// Result is the three-tuple every probe command yields.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec runs cmd to completion in a fresh session and returns its captured
// output, stripped of leading/trailing whitespace. It is the single
// blocking operation in a policy run; ctx cancellation closes the
// underlying connection so the caller can surface a shell-exec failure
// instead of hanging.
func (c *Client) Exec(ctx context.Context, cmd string) (Result, error) {
	if c.client == nil {
		return Result{}, fmt.Errorf("shell: not connected")
	}

	session, err := c.client.NewSession()
	if err != nil {
		return Result{}, fmt.Errorf("shell: opening session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		c.client.Close()
		return Result{}, fmt.Errorf("shell: %w", ctx.Err())
	case err := <-done:
		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				return Result{}, fmt.Errorf("shell: running %q: %w", cmd, err)
			}
		}
		return Result{
			Stdout:   strings.TrimSpace(stdout.String()),
			Stderr:   strings.TrimSpace(stripSudoPrompt(stderr.String())),
			ExitCode: exitCode,
		}, nil
	}
}

// ExecElevated wraps cmd in the Linux sudo escalation when elevate is true
// and the target family is Linux, otherwise delegates straight to Exec.
func (c *Client) ExecElevated(ctx context.Context, family oscmd.Family, cmd string, elevate bool) (Result, error) {
	if !elevate {
		return c.Exec(ctx, cmd)
	}
	return c.Exec(ctx, oscmd.Elevate(family, cmd, c.cfg.Password))
}

func stripSudoPrompt(s string) string {
	return sudoPromptLine.ReplaceAllString(s, "")
}

// Close is idempotent and releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// PushFile uploads localPath to remotePath over SCP on the same connection,
// for staging a golden reference file (e.g. an approved sshd_config) onto a
// target before a rule compares the live file against it.
func (c *Client) PushFile(ctx context.Context, localPath, remotePath string) error {
	if c.client == nil {
		return fmt.Errorf("shell: not connected")
	}
	scpClient, err := scp.NewClientBySSH(c.client)
	if err != nil {
		return fmt.Errorf("shell: opening scp session: %w", err)
	}
	defer scpClient.Close()

	f, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("shell: opening %s: %w", localPath, err)
	}
	defer f.Close()

	if err := scpClient.CopyFile(ctx, f, remotePath, "0644"); err != nil {
		return fmt.Errorf("shell: copying %s to %s:%s: %w", localPath, c.cfg.Host, remotePath, err)
	}
	return nil
}

// FetchFile downloads remotePath to localPath over SCP, for pulling a
// remote file back for offline inspection.
func (c *Client) FetchFile(ctx context.Context, remotePath, localPath string) error {
	if c.client == nil {
		return fmt.Errorf("shell: not connected")
	}
	scpClient, err := scp.NewClientBySSH(c.client)
	if err != nil {
		return fmt.Errorf("shell: opening scp session: %w", err)
	}
	defer scpClient.Close()

	f, err := os.Create(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("shell: creating %s: %w", localPath, err)
	}
	defer f.Close()

	if err := scpClient.CopyFromRemote(ctx, f, remotePath); err != nil {
		return fmt.Errorf("shell: copying %s:%s to %s: %w", c.cfg.Host, remotePath, localPath, err)
	}
	return nil
}
