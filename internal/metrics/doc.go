// Package metrics provides the observability hooks of the smartcart daemon.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never require nil checks at call sites:
//
//	coord := checkout.NewCoordinator(state, display, submitter, checkout.WithRecorder(rec))
//
// PrometheusRecorder registers its collectors on a caller-supplied registry,
// and HTTPHandler exposes that registry on the admin server's /metrics route.
package metrics
