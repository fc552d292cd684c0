package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("no matching file found")

var (
	PDFExts   = []string{".pdf"}
	AudioExts = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	ImageExts = []string{".jpg", ".jpeg", ".png", ".webp"}
	VideoExts = []string{".mp4", ".mov", ".mkv", ".webm", ".avi"}
)

// InitResourceLimits raises the open file limit so parallel ffmpeg
// segments do not run out of descriptors.
func InitResourceLimits(logger *zap.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not read open file limit", zap.Error(err))
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("could not raise open file limit", zap.Error(err))
		return
	}
	logger.Debug("open file limit raised", zap.Uint64("limit", uint64(rLimit.Cur)))
}

// Workers returns the number of physical cores, or the logical CPU count
// when the host does not report them.
func Workers() int {
	n, err := cpu.Counts(false)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// HasExt reports whether path ends in one of exts, ignoring case.
func HasExt(path string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// FindLatest returns the most recently modified file in dir whose
// extension is one of exts. When dir names a file, its directory is
// searched.
func FindLatest(dir string, exts []string) (string, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		dir = filepath.Dir(dir)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !HasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("%w in %s (%s)", ErrNotFound, dir, strings.Join(exts, ", "))
	}
	return latestFile, nil
}
