// Package ratelimit paces image downloads against a single host.
//
// SlidingWindow tracks request timestamps within a moving window and is
// shared by every download worker of a job:
//
//	limiter := ratelimit.PerMinute(cfg.Download.RequestsPerMinute)
//	if limiter != nil {
//		if err := limiter.Wait(ctx); err != nil {
//			return err
//		}
//	}
//
// PerMinute returns nil for a non-positive rate, which callers treat as
// unlimited.
package ratelimit
