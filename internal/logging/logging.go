package logging

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
)

var (
	logFile *os.File
	logPath string
	mu      sync.Mutex
)

// Init configures the global logrus logger. Output always goes to stdout;
// when path is non-empty it is also appended to that file.
func Init(path, level string) error {
	mu.Lock()
	defer mu.Unlock()

	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logPath = path

	if path == "" {
		logger.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warnf("cannot create log directory: %v", err)
		logger.SetOutput(os.Stdout)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warnf("cannot open log file %s: %v", path, err)
		logger.SetOutput(os.Stdout)
		return nil
	}

	logFile = f
	logger.SetOutput(io.MultiWriter(os.Stdout, logFile))
	logger.Infof("Logging to file: %s", path)
	return nil
}

// ReadTail returns the last n lines of the log file, or "" when logging
// to a file is not enabled.
func ReadTail(n int) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if logPath == "" {
		return "", nil
	}

	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan log file: %w", err)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n"), nil
}
