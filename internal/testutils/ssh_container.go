package testutils

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHContainer is a disposable OpenSSH host reachable with a generated key.
type SSHContainer struct {
	Container      testcontainers.Container
	Address        string
	User           string
	KeyPath        string
	KnownHostsPath string
}

const (
	defaultSSHImage          = "linuxserver/openssh-server:version-10.0_p1-r10"
	defaultSSHStartupTimeout = 30 * time.Second
	sshContainerUser         = "testuser"
	sshContainerPort         = "2222/tcp"
)

// SetupSSHContainer starts an SSH host and waits until it completes a key
// exchange. The image can be replaced with NFSPROV_TEST_SSH_IMAGE.
func SetupSSHContainer(t *testing.T, ctx context.Context) *SSHContainer {
	t.Helper()

	dir := t.TempDir()
	keyPath, authorizedKey := writeClientKey(t, dir)

	container, address := startSSHContainer(t, ctx, authorizedKey)

	hostKey, err := waitForHostKey(ctx, address, defaultSSHStartupTimeout)
	if err != nil {
		t.Fatalf("ssh host at %s not ready: %v", address, err)
	}
	knownHostsPath := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{address}, hostKey)
	if err := os.WriteFile(knownHostsPath, []byte(line+"\n"), 0600); err != nil {
		t.Fatalf("failed to write known_hosts: %v", err)
	}

	return &SSHContainer{
		Container:      container,
		Address:        address,
		User:           sshContainerUser,
		KeyPath:        keyPath,
		KnownHostsPath: knownHostsPath,
	}
}

// WriteConfig writes a deployment config that logs in to the container.
// User and KeyFile in fixture default to the container credentials.
func (c *SSHContainer) WriteConfig(t *testing.T, fixture ConfigFixture) string {
	t.Helper()

	if fixture.User == "" {
		fixture.User = c.User
	}
	if fixture.KeyFile == "" {
		fixture.KeyFile = c.KeyPath
	}
	return WriteConfig(t, fixture)
}

func writeClientKey(t *testing.T, dir string) (string, string) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate client key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "nfsprov-test")
	if err != nil {
		t.Fatalf("failed to encode client key: %v", err)
	}
	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("failed to write client key: %v", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("failed to convert public key: %v", err)
	}
	return keyPath, string(ssh.MarshalAuthorizedKey(sshPub))
}

func startSSHContainer(t *testing.T, ctx context.Context, authorizedKey string) (testcontainers.Container, string) {
	t.Helper()

	image := os.Getenv("NFSPROV_TEST_SSH_IMAGE")
	if image == "" {
		image = defaultSSHImage
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{sshContainerPort},
			Env: map[string]string{
				"PUBLIC_KEY": authorizedKey,
				"USER_NAME":  sshContainerUser,
			},
			WaitingFor: wait.ForListeningPort(sshContainerPort).WithStartupTimeout(defaultSSHStartupTimeout),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start ssh container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, sshContainerPort)
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	return container, net.JoinHostPort(host, port.Port())
}

// waitForHostKey retries the key exchange until sshd answers. A listening
// port alone does not mean sshd has finished starting.
func waitForHostKey(ctx context.Context, address string, timeout time.Duration) (ssh.PublicKey, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		key, err := fetchHostKey(ctx, address)
		if err == nil {
			return key, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ctx.Err(), err)
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func fetchHostKey(ctx context.Context, address string) (ssh.PublicKey, error) {
	var hostKey ssh.PublicKey
	config := &ssh.ClientConfig{
		User: sshContainerUser,
		Auth: []ssh.AuthMethod{ssh.Password("invalid")},
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			hostKey = key
			return nil
		},
		Timeout: 5 * time.Second,
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	defer conn.Close()

	_, _, _, err = ssh.NewClientConn(conn, address, config)
	if hostKey == nil {
		if err != nil {
			return nil, fmt.Errorf("capture host key: %w", err)
		}
		return nil, errors.New("no host key offered")
	}
	return hostKey, nil
}
