// Package realtime maintains the persistent websocket connection to the
// scheduler and fans incoming events out to typed subscribers.
//
// The channel isolates transport concerns (handshake, reconnect backoff,
// heartbeats) from application logic: subscribers register against a closed
// set of event kinds and receive raw payloads in arrival order. A panicking
// handler never disturbs other handlers or the read loop, and emitting while
// disconnected is a logged no-op rather than an error.
package realtime
