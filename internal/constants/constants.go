// Package constants is responsible for defining the constants used in the application.
// It also provides utility functions to get the default cache and data paths.
package constants

import (
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// Version is the version of the application, overridden at build time.
	Version = "Dev"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "openbankingbr"

	// DefaultAppFolder is the name of the default root folder.
	DefaultAppFolder = "openbankingbr"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelInfo

	// CacheEntryExt is the extension of cached response files.
	CacheEntryExt = ".json"

	// DefaultCacheMaxAge is the age in days past which the sweep operation removes cache entries.
	DefaultCacheMaxAge = 5

	// DefaultCSVDelimiter is the field delimiter used in emitted reports.
	DefaultCSVDelimiter = ","

	// DefaultCSVEncoding is the text encoding used in emitted reports.
	DefaultCSVEncoding = "utf-8"

	// DefaultHTTPTimeout is the per-request timeout in seconds for participant endpoints.
	DefaultHTTPTimeout = 30
)

type options struct {
	baseDir func() (string, error)
}

type option func(*options)

// GetDefaultCachePath is the default path to the response cache directory.
func GetDefaultCachePath(opts ...option) string {
	o := options{baseDir: os.UserCacheDir}
	for _, opt := range opts {
		opt(&o)
	}

	return filepath.Join(getBaseDir(o.baseDir), DefaultAppFolder)
}

// GetDefaultDataPath is the default path to the directory receiving report files.
func GetDefaultDataPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return "data"
	}
	return filepath.Join(wd, "data")
}

// getBaseDir is a helper function to handle the case where the baseDir function returns an error, and instead return an empty string.
func getBaseDir(baseDirFunc func() (string, error)) string {
	dir, err := baseDirFunc()
	if err != nil {
		return ""
	}
	return dir
}
