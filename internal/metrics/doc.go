// Package metrics records task execution metrics.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers task duration,
// result, file and watch-trigger metrics on a registry that HTTPHandler can
// expose for scraping.
package metrics
