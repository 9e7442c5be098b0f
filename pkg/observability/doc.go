/*
Package observability turns wizard lifecycle events into logs and Prometheus metrics.

Both concerns are exposed as domain.LifecycleHooks so they plug into a controller with
wizard.WithHooks; Combine fans one event out to several hook sets.
*/
package observability
