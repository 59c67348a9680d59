// Package acquisition downloads the media behind a submitted URL into a
// request's working directory.
//
// The Acquirer validates the URL, detects the hosting platform from a fixed
// host table, attaches the platform's cookie bundle when one is installed and
// hands the download to a Downloader (yt-dlp in production). Transient
// download failures are retried with Fibonacci backoff. Every failure comes
// back as an *AcquisitionError, which aborts the moderation run.
package acquisition
