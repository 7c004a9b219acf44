// Package daemon ties the display client together: single-instance
// locking, the driver loop that ticks the sync engine, the push
// connection, and the display hotplug monitor, with an ordered shutdown
// that reports offline before the screen goes dark.
package daemon
