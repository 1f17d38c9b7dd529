// Package prometheus exposes tokenauth engine metrics to Prometheus.
//
// [Collector] turns each [tokenauth.MetricsSnapshot] into const metrics at scrape
// time. Counters are named tokenauth_*_total and validation latency is the
// tokenauth_validate_latency_seconds histogram. Callers register the collector on
// their own registry; [NewRegistry] and [Handler] cover the common case.
package prometheus
