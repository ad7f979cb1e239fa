package reactor

import (
	"sync"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger the reactor emits diagnostics through;
// the only diagnostic it logs is a failed poller wait (see React). It is an
// alias of logiface.Logger[*stumpy.Event], so a Logger supplied via
// WithLogger must be built on the stumpy event type.
type Logger = logiface.Logger[*stumpy.Event]

// defaultLogger is a stumpy-backed JSON logger at Info level, used when no
// Logger is supplied via WithLogger.
func defaultLogger() *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithLevel(logiface.LevelInformational),
	)
}

// rateLimitedLog wraps a Logger with a catrate.Limiter so that a
// misbehaving handle spamming the same failure (e.g. a listener stuck
// returning ECONNABORTED) logs at a bounded rate instead of flooding
// output, mirroring the teacher's own noisy-poll-error concern
// (LogPollIOError) without the unbounded-volume downside.
type rateLimitedLog struct {
	logger *Logger
	limit  *catrate.Limiter
}

func newRateLimitedLog(logger *Logger) *rateLimitedLog {
	if logger == nil {
		logger = defaultLogger()
	}
	return &rateLimitedLog{
		logger: logger,
		limit: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 5,
			time.Minute: 60,
		}),
	}
}

// pollError logs a poll/interest/wait failure for category, at most at the
// rate configured above per category.
func (r *rateLimitedLog) pollError(category string, err error) {
	if _, ok := r.limit.Allow(category); !ok {
		return
	}
	r.logger.Err().Str("op", category).Err(err).Log("reactor: poll error")
}

var (
	defaultLoggerOnce sync.Once
	sharedLogger      *Logger
)

func sharedDefaultLogger() *Logger {
	defaultLoggerOnce.Do(func() {
		sharedLogger = defaultLogger()
	})
	return sharedLogger
}
