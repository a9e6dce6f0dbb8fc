// Package lineending decides which newline sequence a file should be written
// with, and converts content between unix and on-disk line endings.
package lineending

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Kind is the line ending a policy resolves for a file.
type Kind int

const (
	// Unix is "\n".
	Unix Kind = iota
	// Windows is "\r\n".
	Windows
	// PlatformNative is "\r\n" on windows and "\n" everywhere else.
	PlatformNative
)

// String returns the config name of the kind.
func (k Kind) String() string {
	switch k {
	case Unix:
		return "unix"
	case Windows:
		return "windows"
	case PlatformNative:
		return "platform_native"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sequence returns the newline sequence for the kind.
func (k Kind) Sequence() string {
	switch k {
	case Windows:
		return "\r\n"
	case PlatformNative:
		return native()
	default:
		return "\n"
	}
}

func native() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Policy resolves the line ending for a file. Implementations must be safe
// for concurrent use since one policy is shared by every file of a run.
type Policy interface {
	EndingFor(file string) Kind
}

// Fixed returns a policy which resolves every file to k.
func Fixed(k Kind) Policy {
	return fixed(k)
}

type fixed Kind

func (f fixed) EndingFor(string) Kind { return Kind(f) }

// IsUnix reports whether the policy resolves file to "\n".
func IsUnix(p Policy, file string) bool {
	return p.EndingFor(file).Sequence() == "\n"
}

// ToUnix strips every carriage return from input when it contains at
// least one newline. Content without any "\n" is returned untouched.
func ToUnix(input string) string {
	if !strings.Contains(input, "\n") {
		return input
	}
	return strings.ReplaceAll(input, "\r", "")
}

// Apply converts unix content to the given newline sequence.
func Apply(unix, sequence string) string {
	if sequence == "\n" {
		return unix
	}
	return strings.ReplaceAll(unix, "\n", sequence)
}

// Mode names a policy in configuration.
type Mode string

// Supported modes.
const (
	ModeGitAttributes  Mode = "git_attributes"
	ModePlatformNative Mode = "platform_native"
	ModeWindows        Mode = "windows"
	ModeUnix           Mode = "unix"
)

// Modes returns every supported mode in documentation order.
func Modes() []Mode {
	return []Mode{ModeGitAttributes, ModePlatformNative, ModeWindows, ModeUnix}
}

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown line ending %q", s)
}

// NewPolicy builds the policy for mode. Only git_attributes looks at root.
func NewPolicy(mode Mode, root string, logger *slog.Logger) (Policy, error) {
	switch mode {
	case ModeGitAttributes:
		g, err := NewGitAttributes(GitOptions{Root: root, Logger: logger})
		if err != nil {
			return nil, err
		}
		return g, nil
	case ModePlatformNative:
		return Fixed(PlatformNative), nil
	case ModeWindows:
		return Fixed(Windows), nil
	case ModeUnix:
		return Fixed(Unix), nil
	default:
		return nil, fmt.Errorf("unknown line ending %q", mode)
	}
}
