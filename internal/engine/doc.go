// Package engine drives schedule synchronization: it polls the CMS,
// reacts to push events, compares content and ticker fingerprints, and
// reloads local playback only when something actually changed. All
// state transitions happen inside Tick on the daemon's driver loop.
package engine
