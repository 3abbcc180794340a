package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"mevscan/config"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const MaxLogSize = 50 * 1024 * 1024 // 50 MB

var (
	ScanLogger, FeedLogger, GlobalLogger *slog.Logger
	consoleEnabled                       = true

	globalRW, scanRW, feedRW *rotatingWriter
)

// Thread-safe writer that rotates files when they exceed max size.
type rotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	dir     string
	prefix  string // e.g. "mevscan_20250925_101122_scan"
	ext     string // ".log"
	size    int64
	maxSize int64
}

func newRotatingWriter(dir, prefix string, maxSize int64) (*rotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	rw := &rotatingWriter{
		dir:     dir,
		prefix:  prefix,
		ext:     ".log",
		maxSize: maxSize,
	}
	if err := rw.rotateNew(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (w *rotatingWriter) currentName() string {
	return filepath.Join(w.dir, w.prefix+w.ext)
}

func (w *rotatingWriter) rotateNew() error {
	if w.file != nil {
		_ = w.file.Close()
	}

	f, err := os.OpenFile(w.currentName(), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o666)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotateNew(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func SetConsoleEnabled(enabled bool) {
	consoleEnabled = enabled
	resetLoggers()
}

// InitLogs creates the per-subsystem log files for one command invocation.
func InitLogs(cmdName string) {
	ts := time.Now().Format("20060102150405")

	var err error
	scanRW, err = newRotatingWriter(config.LogPath, fmt.Sprintf("mevscan_%s_%s_scan", ts, cmdName), MaxLogSize)
	if err != nil {
		log.Fatal(err)
	}
	feedRW, err = newRotatingWriter(config.LogPath, fmt.Sprintf("mevscan_%s_%s_feed", ts, cmdName), MaxLogSize)
	if err != nil {
		log.Fatal(err)
	}

	ScanLogger = slog.New(newHandler(scanRW))
	FeedLogger = slog.New(newHandler(feedRW))
	resetLoggers()
}

func init() {
	ts := time.Now().Format("20060102150405")

	var err error
	globalRW, err = newRotatingWriter(config.LogPath, fmt.Sprintf("mevscan_%s_global", ts), MaxLogSize)
	if err != nil {
		log.Fatal(err)
	}
	GlobalLogger = slog.New(newHandler(globalRW))
	resetLoggers()
}

func CloseAll() {
	if globalRW != nil {
		_ = globalRW.Close()
	}
	if scanRW != nil {
		_ = scanRW.Close()
	}
	if feedRW != nil {
		_ = feedRW.Close()
	}
}

func newHandler(fileWriter io.Writer) slog.Handler {
	w := fileWriter
	if consoleEnabled {
		w = io.MultiWriter(os.Stdout, fileWriter)
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: true,
	})
}

func resetLoggers() {
	if GlobalLogger != nil && globalRW != nil {
		GlobalLogger = slog.New(newHandler(globalRW))
	}
	if ScanLogger != nil && scanRW != nil {
		ScanLogger = slog.New(newHandler(scanRW))
	}
	if FeedLogger != nil && feedRW != nil {
		FeedLogger = slog.New(newHandler(feedRW))
	}
}
