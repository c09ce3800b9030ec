// Package crawler coordinates a crawl job.
//
// A job resolves its page list (a "{page}" pattern or same-origin next
// links), visits the pages in order collecting image URLs into one set,
// then downloads the set with bounded concurrency into a directory under the
// storage root. Progress is pushed to the job's sink as it happens:
//
//	plan, page, [fallback, scroll...], page_done, ..., discover,
//	saved | download_failed ..., complete
//
// Usage:
//
//	c := crawler.New(crawler.Config{StorageRoot: "storage"}, nil)
//	result, err := c.Run(ctx, crawler.Request{
//		URL:         "https://example.com/gallery",
//		OutDir:      "gallery",
//		UseHeadless: true,
//		Sink:        progress.Func(func(e progress.Event) { ... }),
//	})
//
// A page that cannot be fetched never fails the job. With UseHeadless it is
// rendered in a browser instead; without it the page contributes nothing.
package crawler
