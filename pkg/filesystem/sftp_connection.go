package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// ErrNoAuthMethods is returned when neither the SSH agent nor a default key
// can be used.
var ErrNoAuthMethods = errors.New("no SSH authentication methods available (tried SSH agent and default keys)")

// SFTPConnection holds an established SSH connection to an SFTP host.
// SFTP sessions are opened on it by SFTPClientPool.
type SFTPConnection struct {
	sshClient *ssh.Client
	host      string
	port      int
	user      string
}

// Connect dials host:port and authenticates user with the SSH agent and the
// default private keys. Host keys are verified against ~/.ssh/known_hosts when
// that file exists.
func Connect(ctx context.Context, host string, port int, user string) (*SFTPConnection, error) {
	authMethods := sshAuthMethods()
	if len(authMethods) == 0 {
		return nil, ErrNoAuthMethods
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback(),
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer

	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		_ = netConn.Close()

		return nil, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}

	return &SFTPConnection{
		sshClient: ssh.NewClient(sshConn, chans, reqs),
		host:      host,
		port:      port,
		user:      user,
	}, nil
}

// Close closes the SSH connection.
func (c *SFTPConnection) Close() error {
	if c.sshClient == nil {
		return nil
	}

	return c.sshClient.Close()
}

// SSHClient returns the underlying SSH client.
func (c *SFTPConnection) SSHClient() *ssh.Client {
	return c.sshClient
}

// Address returns user@host:port.
func (c *SFTPConnection) Address() string {
	return fmt.Sprintf("%s@%s", c.user, net.JoinHostPort(c.host, strconv.Itoa(c.port)))
}

func hostKeyCallback() ssh.HostKeyCallback {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		callback, err := knownhosts.New(filepath.Join(homeDir, ".ssh", "known_hosts"))
		if err == nil {
			return callback
		}
	}

	return ssh.InsecureIgnoreHostKey() //nolint:gosec // no known_hosts to verify against
}

// sshAuthMethods returns the agent first, then default keys.
func sshAuthMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if agentAuth := sshAgentAuth(); agentAuth != nil {
		methods = append(methods, agentAuth)
	}

	return append(methods, defaultKeyAuths()...)
}

func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

// defaultKeyAuths loads unencrypted keys from ~/.ssh.
func defaultKeyAuths() []ssh.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var methods []ssh.AuthMethod

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyData, err := os.ReadFile(filepath.Join(homeDir, ".ssh", name))
		if err != nil {
			continue
		}

		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			continue
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	return methods
}
