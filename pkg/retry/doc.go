// Package retry provides backoff strategies and retry logic for transient
// failures while fetching pages and downloading images.
//
// Basic usage:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return fetchImage(ctx, url)
//	}, nil)
//
//	cfg := &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DownloadBackoff(),
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//	}
//	data, err := retry.DoWithResult(ctx, download, cfg)
//
// Error types from pkg/errors drive both the retry decision and, with an
// ErrorAwareBackoff, the delay: rate-limited responses wait longer than
// network failures, and 4xx responses other than 429 are never retried.
//
// Wait is also used on its own for the pause between listing pages.
package retry
