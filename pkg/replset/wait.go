package replset

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/cenkalti/backoff/v4"
    "go.uber.org/zap"

    obsmetrics "github.com/amirimatin/mongo-rsinit/pkg/observability/metrics"
    "github.com/amirimatin/mongo-rsinit/pkg/observability/tracing"
)

// DefaultInterval is the pause between two status polls.
const DefaultInterval = time.Second

// WaitOptions tunes WaitForPrimary. The zero value polls every second and
// never gives up.
type WaitOptions struct {
    // Interval between polls (default 1s).
    Interval time.Duration
    // Timeout bounds the whole wait; 0 waits indefinitely.
    Timeout time.Duration
    // Logger (optional).
    Logger *zap.Logger

    // OnStatus is called with every status document fetched.
    OnStatus func(*Status)
    // OnStateChange is called when the first member's state string differs
    // from the previous poll. prev is empty on the first observation.
    OnStateChange func(prev, cur State)
}

var errNotPrimary = errors.New("replset: first member not primary")

// WaitForPrimary polls the replica-set status until its first member reports
// PRIMARY and returns that status. Transient failures (set not initialized
// yet, server unreachable, empty member list) are retried; anything else ends
// the wait.
func WaitForPrimary(ctx context.Context, admin Admin, opts WaitOptions) (*Status, error) {
    if opts.Interval <= 0 { opts.Interval = DefaultInterval }
    logger := opts.Logger
    if logger == nil { logger = zap.NewNop() }

    ctx, end := tracing.StartSpan(ctx, "replset.wait_primary")
    defer end()

    waitCtx := ctx
    if opts.Timeout > 0 {
        var cancel context.CancelFunc
        waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
        defer cancel()
    }

    var (
        last    *Status
        prev    State
        lastErr error
        started = time.Now()
    )
    poll := func() error {
        st, err := admin.Status(waitCtx)
        if err == nil && (st == nil || len(st.Members) == 0) {
            err = ErrNoMembers
        }
        if err != nil {
            if waitCtx.Err() != nil { return backoff.Permanent(err) }
            lastErr = err
            if isTransient(err) {
                obsmetrics.PollAttempts.WithLabelValues("transient").Inc()
                return err
            }
            obsmetrics.PollAttempts.WithLabelValues("error").Inc()
            return backoff.Permanent(err)
        }
        last, lastErr = st, nil
        if opts.OnStatus != nil { opts.OnStatus(st) }

        first, _ := st.First()
        obsmetrics.MemberState.Set(float64(first.StateStr.Numeric()))
        if first.StateStr != prev {
            logger.Info("first member state", zap.String("member", first.Name), zap.String("state", string(first.StateStr)), zap.String("previous", string(prev)))
            if opts.OnStateChange != nil { opts.OnStateChange(prev, first.StateStr) }
            prev = first.StateStr
        }
        if !st.PrimaryReady() {
            obsmetrics.PollAttempts.WithLabelValues("not_primary").Inc()
            return errNotPrimary
        }
        obsmetrics.PollAttempts.WithLabelValues("primary").Inc()
        return nil
    }
    notify := func(err error, next time.Duration) {
        if errors.Is(err, errNotPrimary) { return }
        logger.Debug("status poll failed, retrying", zap.Error(err), zap.Duration("next", next))
    }

    b := backoff.WithContext(backoff.NewConstantBackOff(opts.Interval), waitCtx)
    err := backoff.RetryNotify(poll, b, notify)
    if err == nil {
        obsmetrics.TimeToPrimary.Observe(time.Since(started).Seconds())
        return last, nil
    }
    if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
        return last, timeoutError(opts.Timeout, prev, lastErr)
    }
    return last, err
}

func timeoutError(after time.Duration, state State, lastErr error) error {
    if state == "" { state = StateUnknown }
    if lastErr != nil {
        return fmt.Errorf("%w after %s (last state %s, last error: %v)", ErrTimeout, after, state, lastErr)
    }
    return fmt.Errorf("%w after %s (last state %s)", ErrTimeout, after, state)
}

func isTransient(err error) bool {
    return errors.Is(err, ErrNotYetInitialized) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrNoMembers)
}
