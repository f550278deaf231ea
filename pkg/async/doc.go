// Package async runs background work without letting a panic take the
// process down.
//
// SafeGo starts a goroutine with an optional timeout, recovers panics and
// logs the outcome through an observability.Logger. Recover is the same
// panic guard for callers that need the error synchronously, for example to
// forward it on a results channel.
package async
