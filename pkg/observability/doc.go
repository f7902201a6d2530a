/*
Package observability turns feedback-loop events into logs and Prometheus metrics.

Both are exposed as domain.LoopHooks so callers can merge them and pass the
result to a loop with runtime.WithHooks.
*/
package observability
