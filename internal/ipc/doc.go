// Package ipc provides daemon control over a Unix domain socket using
// JSON-RPC: status, forced refresh, ticker speed, playback history, and
// shutdown.
package ipc
