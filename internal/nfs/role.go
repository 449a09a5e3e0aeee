package nfs

import (
	"errors"
	"strings"

	"github.com/tpodg/nfsprov/internal/config"
)

// Role is the NFS deployment profile applied to a host.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "NfsServer"
	case RoleClient:
		return "NfsClient"
	default:
		return "NfsUnknown"
	}
}

func (r Role) packagesKey() string {
	if r == RoleClient {
		return "client_pkgs"
	}
	return "server_pkgs"
}

func (r Role) servicesKey() string {
	if r == RoleClient {
		return "client_services"
	}
	return "server_services"
}

// postInstallCommands returns the role configuration commands in execution
// order.
func (r Role) postInstallCommands(store *config.Store, serverAddress string) ([]string, error) {
	var (
		commands []string
		err      error
	)
	switch r {
	case RoleServer:
		commands, err = serverCommands(store)
	case RoleClient:
		commands, err = clientCommands(store, serverAddress)
	default:
		return nil, errors.New("unknown role")
	}
	if err != nil {
		return nil, err
	}

	restarts, err := restartServiceCommands(store.List(config.SectionNFS, r.servicesKey()))
	if err != nil {
		return nil, err
	}
	return append(commands, restarts...), nil
}

func serverCommands(store *config.Store) ([]string, error) {
	dir, err := store.Get(config.SectionNFS, "server_dir")
	if err != nil {
		return nil, err
	}
	entry := strings.TrimSpace(dir + " " + store.Lookup(config.SectionNFS, "export_options"))

	mkdir, err := renderCommand("export_dir", struct{ Dir string }{dir})
	if err != nil {
		return nil, err
	}
	exports, err := renderCommand("write_exports", struct{ Entry string }{entry})
	if err != nil {
		return nil, err
	}
	reexport, err := renderCommand("reexport", nil)
	if err != nil {
		return nil, err
	}
	return []string{mkdir, exports, reexport}, nil
}

func clientCommands(store *config.Store, serverAddress string) ([]string, error) {
	if serverAddress == "" {
		return nil, errors.New("nfs server address is empty")
	}
	exported, err := store.Get(config.SectionNFS, "server_dir")
	if err != nil {
		return nil, err
	}
	dir, err := store.Get(config.SectionNFS, "client_dir")
	if err != nil {
		return nil, err
	}

	mkdir, err := renderCommand("mount_dir", struct{ Dir string }{dir})
	if err != nil {
		return nil, err
	}
	mount, err := renderCommand("mount", struct {
		Options string
		Source  string
		Dir     string
	}{
		Options: store.Lookup(config.SectionNFS, "mount_options"),
		Source:  exportSource(serverAddress, exported),
		Dir:     dir,
	})
	if err != nil {
		return nil, err
	}
	return []string{mkdir, mount}, nil
}

// exportSource formats server:path, bracketing IPv6 literals.
func exportSource(serverAddress, path string) string {
	if strings.Contains(serverAddress, ":") && !strings.HasPrefix(serverAddress, "[") {
		serverAddress = "[" + serverAddress + "]"
	}
	return serverAddress + ":" + path
}
