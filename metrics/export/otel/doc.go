// Package otel binds tokenauth engine metrics to an OpenTelemetry meter.
//
// [NewExporter] registers an observable counter per engine counter and an observable
// gauge per cumulative latency bucket, all fed by one callback that reads
// [tokenauth.Engine.MetricsSnapshot]. The caller owns the MeterProvider.
package otel
