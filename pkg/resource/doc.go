// Package resource provides the access façade data consumers use instead
// of talking to the cache directly: Load, State, Refetch and Invalidate per
// logical resource.
package resource
