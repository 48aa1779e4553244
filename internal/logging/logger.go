// Package logging configures the logrus logger shared by the command line
// and the repository backends.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// log field keys
const (
	// BackendFieldKey backend name (string, ex: gitrepo)
	BackendFieldKey = "backend"
	// RepositoryFieldKey repository path (string)
	RepositoryFieldKey = "repository"
	// CommandFieldKey command line subcommand (string, ex: log)
	CommandFieldKey = "command"
	// RevisionFieldKey changeset identifier (string)
	RevisionFieldKey = "revision"
)

// Options selects the level and format of a logger.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a logger from opts. Unknown levels or formats are errors.
// Output defaults to stderr so logs never mix with command output.
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	level, discard, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(level)
	if discard {
		l.SetOutput(io.Discard)
	}

	formatter, err := newFormatter(opts.Format)
	if err != nil {
		return nil, err
	}
	l.SetFormatter(formatter)
	return l, nil
}

// ParseLevel maps a level name to a logrus level. "none" and "null" select
// a logger whose output is discarded. An empty name means "warn".
func ParseLevel(level string) (lvl logrus.Level, discard bool, err error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel, false, nil
	case "debug":
		return logrus.DebugLevel, false, nil
	case "info":
		return logrus.InfoLevel, false, nil
	case "", "warn", "warning":
		return logrus.WarnLevel, false, nil
	case "error":
		return logrus.ErrorLevel, false, nil
	case "null", "none":
		return logrus.PanicLevel, true, nil
	default:
		return logrus.WarnLevel, false, fmt.Errorf("unknown log level %q", level)
	}
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return &logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
			QuoteEmptyFields:       true,
		}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
