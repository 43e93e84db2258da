package logs

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the log file created in the data directory
const FileName = "debug.log"

// Logger is the process-wide debug logger. Output is discarded until
// Initialize points it at a directory.
var Logger = log.New(io.Discard, "[jobtrack] ", log.LstdFlags|log.Lshortfile)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Initialize appends log output to debug.log in dir. Calling it again moves
// the output; the previous file is closed.
func Initialize(dir string) error {
	if dir == "" {
		return nil
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}

	mu.Lock()
	defer mu.Unlock()
	previous := logFile
	logFile = f
	Logger.SetOutput(f)
	if previous != nil {
		previous.Close()
	}
	Logger.Printf("logging to %s", path)
	return nil
}

// Close stops file logging and closes the file
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	Logger.SetOutput(io.Discard)
	err := logFile.Close()
	logFile = nil
	return err
}
