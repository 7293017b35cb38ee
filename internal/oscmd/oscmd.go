// Package oscmd produces the probe command strings a RemoteShell runs,
// parameterised by the target's OS family. It holds no state and performs
// no I/O — every function is a pure string builder.
package oscmd

import (
	"fmt"

	"github.com/iiicsti/scaaudit/internal/diagnostic"
)

// Family is the target OS family a policy declares and a probe is built
// for.
type Family string

const (
	Linux   Family = "linux"
	Windows Family = "windows"
)

// Builder produces probe commands for one OS family.
type Builder struct {
	Family Family
}

// New returns a Builder for family.
func New(family Family) Builder {
	return Builder{Family: family}
}

// FileExists builds the probe for "does path exist as a file".
func (b Builder) FileExists(path string) (string, error) {
	switch b.Family {
	case Linux:
		return fmt.Sprintf("test -f %s && echo 'exists' || echo 'not exists'", path), nil
	case Windows:
		return fmt.Sprintf("if exist %s (echo exists) else (echo not exists)", path), nil
	default:
		return "", unsupported(b.Family)
	}
}

// DirectoryExists builds the probe for a non-recursive directory listing,
// used as an existence check: a non-empty listing means the directory
// exists.
func (b Builder) DirectoryExists(dir string) (string, error) {
	switch b.Family {
	case Linux:
		return fmt.Sprintf("ls %s", dir), nil
	case Windows:
		return fmt.Sprintf("dir %s /b", dir), nil
	default:
		return "", unsupported(b.Family)
	}
}

// RecursiveList builds the probe that lists files under dir up to three
// levels deep.
func (b Builder) RecursiveList(dir string) (string, error) {
	switch b.Family {
	case Linux:
		return fmt.Sprintf("find %s -maxdepth 3 -type f", dir), nil
	case Windows:
		return fmt.Sprintf("dir %s /s /b", dir), nil
	default:
		return "", unsupported(b.Family)
	}
}

// ProcessExists builds the probe for a running process matching name.
func (b Builder) ProcessExists(name string) (string, error) {
	switch b.Family {
	case Linux:
		return fmt.Sprintf("ps aux | grep '%s' | grep -v grep", name), nil
	case Windows:
		return fmt.Sprintf(`tasklist /FI "IMAGENAME eq %s"`, name), nil
	default:
		return "", unsupported(b.Family)
	}
}

// RegistryKeyExists builds the probe for the existence of a registry key,
// with no value name. Windows-only.
func (b Builder) RegistryKeyExists(key string) (string, error) {
	if b.Family != Windows {
		return "", diagnostic.New(diagnostic.InvalidConfiguration, "registry checks require windows family", 0, 0)
	}
	return fmt.Sprintf(`reg query "%s"`, key), nil
}

// RegistryValue builds the probe for a named value beneath a registry key.
// Windows-only.
func (b Builder) RegistryValue(key, value string) (string, error) {
	if b.Family != Windows {
		return "", diagnostic.New(diagnostic.InvalidConfiguration, "registry checks require windows family", 0, 0)
	}
	return fmt.Sprintf(`reg query "%s" /v %s`, key, value), nil
}

// ReadFile builds the probe to dump a file's full contents.
func (b Builder) ReadFile(path string) (string, error) {
	switch b.Family {
	case Linux:
		return fmt.Sprintf("cat %s", path), nil
	case Windows:
		return fmt.Sprintf("type %s", path), nil
	default:
		return "", unsupported(b.Family)
	}
}

// Elevate wraps cmd in the password-based sudo escalation used on Linux
// targets. The forced C locale keeps downstream regex matching stable
// across locales. No-op outside Linux.
func Elevate(family Family, cmd, password string) string {
	if family != Linux {
		return cmd
	}
	return fmt.Sprintf("export LC_ALL=C && echo %s | sudo -S %s", password, cmd)
}

func unsupported(f Family) error {
	return diagnostic.New(diagnostic.InvalidConfiguration, fmt.Sprintf("unsupported OS family: %s", f), 0, 0)
}
