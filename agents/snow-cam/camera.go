package snowcam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"camwatch/shared/config"
)

// FileSource lists and downloads images from the camera's upload directory
type FileSource interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string, dst io.Writer) error
}

// LatestCandidate returns the lexicographically last name ending in ext.
// Camera file names encode the capture time, so this is the freshest image.
func LatestCandidate(names []string, ext string) (string, bool) {
	var matches []string
	for _, name := range names {
		if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[len(matches)-1], true
}

// SFTPSource reads the camera directory over SFTP. Each call opens its own
// session; a run makes at most two.
type SFTPSource struct {
	config *config.CameraConfig
	logger *slog.Logger
}

func NewSFTPSource(cfg *config.CameraConfig, logger *slog.Logger) *SFTPSource {
	return &SFTPSource{config: cfg, logger: logger}
}

func (s *SFTPSource) List(ctx context.Context) ([]string, error) {
	var names []string
	err := s.withClient(ctx, func(client *sftp.Client) error {
		entries, err := client.ReadDir(s.config.Directory)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", s.config.Directory, err)
		}
		for _, entry := range entries {
			if entry.Mode().IsRegular() {
				names = append(names, entry.Name())
			}
		}
		return nil
	})
	return names, err
}

func (s *SFTPSource) Fetch(ctx context.Context, name string, dst io.Writer) error {
	return s.withClient(ctx, func(client *sftp.Client) error {
		remote := path.Join(s.config.Directory, name)
		f, err := client.Open(remote)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", remote, err)
		}
		defer f.Close()

		if _, err := io.Copy(dst, f); err != nil {
			return fmt.Errorf("failed to download %s: %w", remote, err)
		}
		return nil
	})
}

func (s *SFTPSource) withClient(ctx context.Context, fn func(client *sftp.Client) error) error {
	hostKeyCallback, err := s.hostKeyCallback()
	if err != nil {
		return err
	}

	sshConfig := &ssh.ClientConfig{
		User:            s.config.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(s.config.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.logger.Debug("connecting to camera host", slog.String("addr", addr))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("failed to start sftp session: %w", err)
	}
	defer client.Close()

	return fn(client)
}

func (s *SFTPSource) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if s.config.KnownHostsFile == "" {
		s.logger.Warn("no known_hosts_file configured, camera host key is not verified")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	callback, err := knownhosts.New(config.ExpandHome(s.config.KnownHostsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}
	return callback, nil
}
