package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"syscall"
)

// RetryPolicy decides which failures are worth another attempt.
type RetryPolicy int

const (
	// RetryTransient retries connection resets and timeouts only.
	RetryTransient RetryPolicy = iota
	// RetryNetwork retries any transport failure.
	RetryNetwork
	// RetryNever sends exactly once.
	RetryNever
)

// PolicyFor maps a method to its retry policy: GET retries transient errors,
// POST (the token request) retries any network failure, writes never retry so
// a lost response cannot cause a duplicate write.
func PolicyFor(method string) RetryPolicy {
	switch method {
	case nethttp.MethodGet:
		return RetryTransient
	case nethttp.MethodPost:
		return RetryNetwork
	default:
		return RetryNever
	}
}

// IsTransient reports whether err is a connection reset or a timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func transientRetryPolicy(ctx context.Context, _ *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return IsTransient(err), nil
}

func networkRetryPolicy(ctx context.Context, _ *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return err != nil, nil
}

func neverRetryPolicy(ctx context.Context, _ *nethttp.Response, _ error) (bool, error) {
	return false, ctx.Err()
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return out
}
