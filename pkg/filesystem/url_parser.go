package filesystem

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const defaultSFTPPort = 22

// Location is a parsed scan target: a local path or a path on an SFTP host.
type Location struct {
	Remote bool
	Host   string
	Port   int
	User   string
	// Path is the local path, or the remote path relative to the login
	// directory unless absolute.
	Path string
}

// String renders the location back in its input form.
func (l *Location) String() string {
	if !l.Remote {
		return l.Path
	}

	return fmt.Sprintf("sftp://%s@%s:%d/%s", l.User, l.Host, l.Port, l.Path)
}

// ParseLocation detects whether target is a local path or an SFTP URL of the
// form sftp://user@host[:port]/path. A single slash after the host means a
// path relative to the remote home directory; a double slash means an
// absolute path.
//
//   - sftp://joe@myserver.com/data     → "data" in joe's home
//   - sftp://joe@myserver.com:2222//srv → "/srv"
//   - /local/path                      → local
func ParseLocation(target string) (*Location, error) {
	if !strings.HasPrefix(target, "sftp://") {
		return &Location{Path: target}, nil
	}

	u, err := url.Parse(target) //nolint:varnamelen // u is idiomatic for URL
	if err != nil {
		return nil, fmt.Errorf("invalid SFTP URL: %w", err)
	}

	if u.User == nil || u.User.Username() == "" {
		return nil, errors.New("SFTP URL must include username (sftp://user@host/path)")
	}

	if u.Hostname() == "" {
		return nil, errors.New("SFTP URL must include host")
	}

	port := defaultSFTPPort

	if raw := u.Port(); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %w", err)
		}
	}

	remotePath := u.Path

	switch {
	case remotePath == "" || remotePath == "/":
		remotePath = "."
	case strings.HasPrefix(remotePath, "//"):
		remotePath = remotePath[1:]
	default:
		remotePath = strings.TrimPrefix(remotePath, "/")
	}

	return &Location{
		Remote: true,
		Host:   u.Hostname(),
		Port:   port,
		User:   u.User.Username(),
		Path:   remotePath,
	}, nil
}
