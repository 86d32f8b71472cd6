package client

import (
	"net"
	"strconv"

	"github.com/grovetools/teamboard/pkg/team"
)

// New returns a RemoteClient when a server answers at baseURL, otherwise a
// LocalClient over loader. Callers use the same API either way.
func New(baseURL string, loader *team.Loader) Client {
	remote := NewRemoteClient(baseURL)
	if remote.IsRunning() {
		return remote
	}
	_ = remote.Close()
	return NewLocalClient(loader)
}

// BaseURL returns the URL of a local server listening on host:port.
// Wildcard listen hosts are reached over loopback.
func BaseURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}
