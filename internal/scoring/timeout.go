package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutClient bounds every call of the wrapped client.
type TimeoutClient struct {
	next    Client
	timeout time.Duration
}

func WithTimeout(next Client, timeout time.Duration) *TimeoutClient {
	return &TimeoutClient{next: next, timeout: timeout}
}

func (c *TimeoutClient) Score(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type response struct {
		result *Result
		err    error
	}
	// buffered so the call goroutine never blocks after a timeout
	done := make(chan response, 1)
	go func() {
		r, err := c.next.Score(callCtx, req)
		done <- response{result: r, err: err}
	}()

	select {
	case resp := <-done:
		if resp.err != nil {
			if se, ok := AsError(resp.err); ok {
				return nil, se
			}
			if errors.Is(resp.err, context.Canceled) && ctx.Err() != nil {
				return nil, resp.err
			}
			return nil, NewError(KindUnavailable, resp.err)
		}
		return resp.result, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// parent cancellation is not a scoring failure
			return nil, ctx.Err()
		}
		return nil, NewError(KindTimeout, fmt.Errorf("no response within %s", c.timeout))
	}
}
