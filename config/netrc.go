package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bgentry/go-netrc/netrc"
)

func DefaultNetrcPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netrc"
	}
	return filepath.Join(home, ".netrc")
}

// ApplyNetrc reads the login and password of the management server's
// machine entry from the given .netrc file.
func (m *ManagementConfig) ApplyNetrc(path string) error {
	host, err := m.Host()
	if err != nil {
		return err
	}
	rc, err := netrc.ParseFile(path)
	if err != nil {
		return fmt.Errorf("netrc: failed to read %s: %s", path, err)
	}
	machine := rc.FindMachine(host)
	if machine == nil || machine.IsDefault() {
		return fmt.Errorf("netrc: there is no entry for the management server %s", host)
	}
	m.User = machine.Login
	m.Password = machine.Password
	return nil
}
