package telegram

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/rottengram/rottenshield/internal/observability"
)

const (
	backoffBase     = 500 * time.Millisecond
	backoffMax      = 10 * time.Second
	retryAfterLimit = 60 * time.Second
)

// do runs call at most maxRetries times. Only flood waits, server side
// errors and transport failures are retried; any other API error is final.
func (o *Operations) do(ctx context.Context, method string, call func() error) error {
	var err error
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		if err = o.limiter.Wait(ctx); err != nil {
			observability.RecordPlatformRequest(method, "cancelled")
			return errors.Wrap(err, "rate limiter")
		}

		err = call()
		observability.RecordPlatformRequest(method, requestStatus(err))
		if err == nil {
			return nil
		}

		delay, retryable := RetryDelay(err, attempt)
		if !retryable || attempt == o.maxRetries {
			break
		}
		o.logger.WithError(err).WithFields(map[string]any{
			"method":  method,
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warn("telegram request failed, retrying")
		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			return errors.Wrap(sleepErr, method)
		}
	}
	return errors.WithMessage(err, method)
}

// RetryDelay tells how long to wait before attempt+1 and whether err is worth retrying at all.
func RetryDelay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.RetryAfter > 0:
			d := time.Duration(apiErr.RetryAfter) * time.Second
			if d > retryAfterLimit {
				d = retryAfterLimit
			}
			return d, true
		case apiErr.Code >= 500:
			return backoff(attempt), true
		default:
			return 0, false
		}
	}
	return backoff(attempt), true
}

// backoff doubles per attempt and adds up to a quarter of jitter.
func backoff(attempt int) time.Duration {
	d := backoffBase
	for i := 1; i < attempt && d < backoffMax; i++ {
		d *= 2
	}
	if d > backoffMax {
		d = backoffMax
	}
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

func requestStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return strconv.Itoa(apiErr.Code)
	}
	return "error"
}

func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
