package pathutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	// DefaultReadTimeout bounds a single config-file read. A file on a
	// stalled network mount must not wedge an entire scanner.
	DefaultReadTimeout = 5 * time.Second

	// DefaultChecksumTimeout bounds checksum computation.
	DefaultChecksumTimeout = 3 * time.Second
)

// Reader performs bounded, failure-tolerant file reads. Every operation
// that touches the filesystem runs on a worker goroutine with a wall-clock
// deadline; on expiry the result is abandoned, never the worker killed.
type Reader struct {
	log             *zap.Logger
	clk             clock.Clock
	readTimeout     time.Duration
	checksumTimeout time.Duration
}

// NewReader creates a Reader with default timeouts.
func NewReader(log *zap.Logger) *Reader {
	return &Reader{
		log:             log,
		clk:             clock.New(),
		readTimeout:     DefaultReadTimeout,
		checksumTimeout: DefaultChecksumTimeout,
	}
}

// NewReaderWithClock creates a Reader on an injected clock, for tests.
func NewReaderWithClock(log *zap.Logger, clk clock.Clock, readTimeout time.Duration) *Reader {
	return &Reader{
		log:             log,
		clk:             clk,
		readTimeout:     readTimeout,
		checksumTimeout: readTimeout,
	}
}

// IsReadableFile reports whether path is a regular file that can be opened
// for reading. It never returns an error; any failure is "not readable".
func IsReadableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// ReadFile returns the file's content, or "" if the file is unreadable or
// the read exceeds the deadline. Callers treat "" as "nothing learned".
func (r *Reader) ReadFile(path string) string {
	if !IsReadableFile(path) {
		return ""
	}

	type result struct {
		content string
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- result{content: string(data), err: err}
	}()

	timer := r.clk.Timer(r.readTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			r.log.Warn("could not read file", zap.String("path", path), zap.Error(res.err))
			return ""
		}
		return res.content
	case <-timer.C:
		r.log.Warn("timed out reading file", zap.String("path", path), zap.Duration("timeout", r.readTimeout))
		return ""
	}
}

// Checksum returns the hex sha256 of the file, or "" on any failure or
// deadline expiry.
func (r *Reader) Checksum(path string) string {
	ch := make(chan string, 1)
	go func() {
		f, err := os.Open(path)
		if err != nil {
			ch <- ""
			return
		}
		defer f.Close()
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			ch <- ""
			return
		}
		ch <- hex.EncodeToString(h.Sum(nil))
	}()

	timer := r.clk.Timer(r.checksumTimeout)
	defer timer.Stop()

	select {
	case sum := <-ch:
		return sum
	case <-timer.C:
		r.log.Warn("timed out computing checksum", zap.String("path", path))
		return ""
	}
}
