package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleOutput writes capture status and progress lines to the terminal
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	showTimestamp bool
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// ShowTimestamp prefixes each line with a timestamp
	ShowTimestamp bool

	// Writer is the output destination (default: os.Stdout)
	Writer io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}
	return &ConsoleOutput{
		writer:        writer,
		showTimestamp: config.ShowTimestamp,
	}
}

// DefaultConsoleOutput creates a console output with default settings
func DefaultConsoleOutput() *ConsoleOutput {
	return NewConsoleOutput(ConsoleConfig{
		ShowTimestamp: true,
		Writer:        os.Stdout,
	})
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.showTimestamp {
		fmt.Fprintf(c.writer, "[%s] %s\n", time.Now().Format("15:04:05"), msg)
	} else {
		fmt.Fprintf(c.writer, "%s\n", msg)
	}
}

// Error writes an error message to stderr
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(os.Stderr, "[ERROR] %s\n", msg)
}

// Level redraws the capture level bar on the current line
func (c *ConsoleOutput) Level(level float64, recording bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	barLength := int(level * 50)
	if barLength > 50 {
		barLength = 50
	}
	state := "paused "
	if recording {
		state = "rec    "
	}
	fmt.Fprintf(c.writer, "\r[%s] [%-50s] %5.1f%%", state, strings.Repeat("=", barLength), level*100)
}

// Clear clears the current line
func (c *ConsoleOutput) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "\r%80s\r", " ")
}
