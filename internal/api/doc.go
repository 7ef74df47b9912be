// Package api exposes the subsystem's HTTP surfaces: the reconciliation API
// clients poll after (re)connecting, and the internal send endpoint the rest
// of the platform calls.
package api
