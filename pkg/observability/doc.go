/*
Package observability provides Prometheus instrumentation for the proposal service.

A Metrics value counts lifecycle transitions and validation failures and times
candidate generation. Every method is safe to call on a nil *Metrics, so
components can record unconditionally and metrics stay optional.
*/
package observability
