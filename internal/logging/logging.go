package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"connect-arena/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
)

// Init configures the global zerolog logger. The returned closer releases the
// log file when LOG_FILE is set and is a no-op otherwise.
func Init(cfg config.LogConfig) (io.Closer, error) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var (
		base   io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		fw, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB)
		if err != nil {
			return nil, err
		}
		base = io.MultiWriter(os.Stdout, fw)
		closer = fw
	}
	setWriter(base)

	var output io.Writer = base
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: base}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return closer, nil
}

// Writer is the raw sink behind the global logger, for loggers that are not
// zerolog such as the HTTP access log.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

func setWriter(w io.Writer) {
	writerMu.Lock()
	defer writerMu.Unlock()
	writer = w
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
