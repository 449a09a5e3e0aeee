package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	goconfig "github.com/tpodg/go-config"

	"github.com/tpodg/nfsprov/internal/strutil"
)

const (
	DefaultConfigFileName = ".nfsprov.yaml"
	EnvPrefix             = "NFSPROV"
)

const (
	SectionFabric = "fabric"
	SectionNFS    = "nfs"
)

var (
	ErrNotFound   = errors.New("config file not found")
	ErrMalformed  = errors.New("malformed config")
	ErrMissingKey = errors.New("missing config key")
)

// Error describes a configuration problem. Section and Key are empty when the
// problem concerns the whole file.
type Error struct {
	Path    string
	Section string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config %s: %s.%s: %v", e.Path, e.Section, e.Key, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type fileConfig struct {
	Fabric FabricConfig `yaml:"fabric"`
	NFS    NFSConfig    `yaml:"nfs"`
}

type FabricConfig struct {
	User              string `yaml:"user"`
	KeyFilename       string `yaml:"key_filename"`
	DisableKnownHosts string `yaml:"disable_known_hosts"`
	Linewise          string `yaml:"linewise"`
	WarnOnly          string `yaml:"warn_only"`
	AbortOnPrompts    string `yaml:"abort_on_prompts"`
	AlwaysUsePTY      string `yaml:"always_use_pty"`
	Timeout           string `yaml:"timeout"`
}

type NFSConfig struct {
	ServerPkgs     string `yaml:"server_pkgs"`
	ClientPkgs     string `yaml:"client_pkgs"`
	ServerDir      string `yaml:"server_dir"`
	ClientDir      string `yaml:"client_dir"`
	ExportOptions  string `yaml:"export_options"`
	MountOptions   string `yaml:"mount_options"`
	ServerServices string `yaml:"server_services"`
	ClientServices string `yaml:"client_services"`
}

// Store is a read-only (section, key) -> value lookup built from one config file.
type Store struct {
	path    string
	entries map[string]map[string]string
}

// Load the configuration from the given file or default locations.
func Load(cfgFile string) (*Store, error) {
	path, err := findConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %v", ErrNotFound, err)}
	}

	c := goconfig.New()
	c.WithProviders(&goconfig.Yaml{Path: absPath}, &goconfig.Env{Prefix: EnvPrefix})

	raw := &fileConfig{}
	if err := c.Parse(raw); err != nil {
		return nil, &Error{Path: absPath, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	return &Store{path: absPath, entries: raw.entries()}, nil
}

// NewStore builds a Store from in-memory entries. The input is copied.
func NewStore(path string, entries map[string]map[string]string) *Store {
	copied := make(map[string]map[string]string, len(entries))
	for section, values := range entries {
		inner := make(map[string]string, len(values))
		for key, value := range values {
			inner[key] = value
		}
		copied[section] = inner
	}
	return &Store{path: path, entries: copied}
}

func (f *fileConfig) entries() map[string]map[string]string {
	return map[string]map[string]string{
		SectionFabric: {
			"user":                f.Fabric.User,
			"key_filename":        f.Fabric.KeyFilename,
			"disable_known_hosts": f.Fabric.DisableKnownHosts,
			"linewise":            f.Fabric.Linewise,
			"warn_only":           f.Fabric.WarnOnly,
			"abort_on_prompts":    f.Fabric.AbortOnPrompts,
			"always_use_pty":      f.Fabric.AlwaysUsePTY,
			"timeout":             f.Fabric.Timeout,
		},
		SectionNFS: {
			"server_pkgs":     f.NFS.ServerPkgs,
			"client_pkgs":     f.NFS.ClientPkgs,
			"server_dir":      f.NFS.ServerDir,
			"client_dir":      f.NFS.ClientDir,
			"export_options":  f.NFS.ExportOptions,
			"mount_options":   f.NFS.MountOptions,
			"server_services": f.NFS.ServerServices,
			"client_services": f.NFS.ClientServices,
		},
	}
}

// Path returns the absolute path the store was loaded from.
func (s *Store) Path() string { return s.path }

// Get returns a non-empty value or an ErrMissingKey error.
func (s *Store) Get(section, key string) (string, error) {
	value := s.Lookup(section, key)
	if value == "" {
		return "", s.keyError(section, key, ErrMissingKey)
	}
	return value, nil
}

// Lookup returns the value for section.key, or an empty string when unset.
func (s *Store) Lookup(section, key string) string {
	if s == nil {
		return ""
	}
	return s.entries[section][key]
}

func (s *Store) Bool(section, key string) (bool, error) {
	value, err := s.Get(section, key)
	if err != nil {
		return false, err
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, s.keyError(section, key, fmt.Errorf("%w: %q is not a boolean", ErrMalformed, value))
	}
	return parsed, nil
}

func (s *Store) Int(section, key string) (int, error) {
	value, err := s.Get(section, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, s.keyError(section, key, fmt.Errorf("%w: %q is not an integer", ErrMalformed, value))
	}
	return parsed, nil
}

// List splits a comma-separated value, keeping configured order and dropping
// blank entries. An unset key yields an empty list.
func (s *Store) List(section, key string) []string {
	return strutil.SplitList(s.Lookup(section, key))
}

func (s *Store) keyError(section, key string, err error) error {
	path := ""
	if s != nil {
		path = s.path
	}
	return &Error{Path: path, Section: section, Key: key, Err: err}
}

func findConfigFile(cfgFile string) (string, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return "", &Error{Path: cfgFile, Err: fmt.Errorf("%w: %v", ErrNotFound, err)}
		}
		return cfgFile, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, DefaultConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if _, err := os.Stat(DefaultConfigFileName); err == nil {
		return DefaultConfigFileName, nil
	}

	return "", &Error{Path: DefaultConfigFileName, Err: ErrNotFound}
}
