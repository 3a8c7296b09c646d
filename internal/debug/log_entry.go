package debug

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "NONE"
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARNING"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Component identifies the device that generated a log entry.
type Component string

const (
	ComponentCPU    Component = "CPU"
	ComponentGTE    Component = "GTE"
	ComponentGPU    Component = "GPU"
	ComponentCDROM  Component = "CDROM"
	ComponentSPU    Component = "SPU"
	ComponentDMA    Component = "DMA"
	ComponentTimer  Component = "Timer"
	ComponentINTC   Component = "INTC"
	ComponentMDEC   Component = "MDEC"
	ComponentSIO0   Component = "SIO0"
	ComponentMemory Component = "Memory"
	ComponentSystem Component = "System"
)

// LogEntry represents a single log entry.
type LogEntry struct {
	Timestamp time.Time
	Component Component
	Level     LogLevel
	Message   string
	Data      map[string]interface{}
}

// Format formats the log entry as a string.
func (e *LogEntry) Format() string {
	timestamp := e.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] [%s] %s: %s", timestamp, e.Component, e.Level, e.Message)
}
