// Package httpclient wraps net/http for outbound calls to external APIs.
//
// It normalizes responses into a single Response shape and classifies
// failures into three typed errors the caller can base retry decisions on:
//
//   - *TimeoutError: the request exceeded its deadline
//   - *NetworkError: DNS, connection refused, connection reset
//   - *StatusError: the server answered with status >= 400
//
// The client carries no retry or business logic of its own.
package httpclient
