package system

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"psx-core/internal/debug"
)

// Config gathers the BIOS/disc/memory-card paths and ambient
// logging/pacing knobs a host needs to construct a System. It can be
// loaded from a psxcore.toml file and then overridden by CLI flags,
// matching the teacher's devkit settings pattern but in the pack's
// richer static-config format.
type Config struct {
	BIOSPath       string `toml:"bios_path"`
	DiscPath       string `toml:"disc_path"`
	MemoryCardPath string `toml:"memory_card_path"`
	StatesDir      string `toml:"states_dir"`

	FrameLimit bool `toml:"frame_limit"`

	LogLevel      debug.LogLevel    `toml:"-"`
	LogLevelName  string            `toml:"log_level"`
	LogComponents []debug.Component `toml:"-"`
}

// DefaultConfig returns the power-on-equivalent configuration: frame
// limiting on, logging off, memory card and save states alongside the
// working directory.
func DefaultConfig() Config {
	return Config{
		MemoryCardPath: "memcard1.mcr",
		StatesDir:      "./states",
		FrameLimit:     true,
		LogLevel:       debug.LogLevelNone,
	}
}

// LoadConfigFile reads a TOML config file at path, merging it onto
// DefaultConfig. A missing file is not an error; the caller is
// expected to have checked existence first if that distinction
// matters.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("system: failed to parse config %q: %w", path, err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg, nil
}

func parseLogLevel(name string) debug.LogLevel {
	switch name {
	case "error":
		return debug.LogLevelError
	case "warning":
		return debug.LogLevelWarning
	case "info":
		return debug.LogLevelInfo
	case "debug":
		return debug.LogLevelDebug
	case "trace":
		return debug.LogLevelTrace
	default:
		return debug.LogLevelNone
	}
}

// AllComponents enables logging for every device component; used by
// the CLI's -log flag the way the teacher's main.go enables every
// component when verbose logging is requested.
func AllComponents() []debug.Component {
	return []debug.Component{
		debug.ComponentCPU, debug.ComponentGTE, debug.ComponentGPU,
		debug.ComponentCDROM, debug.ComponentSPU, debug.ComponentDMA,
		debug.ComponentTimer, debug.ComponentINTC, debug.ComponentMDEC,
		debug.ComponentSIO0, debug.ComponentMemory, debug.ComponentSystem,
	}
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("no BIOS path provided")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read BIOS file %q: %w", path, err)
	}
	return data, nil
}
