// Package render provides display backends for the playlist player. The
// headless backend logs playback and simulates video timing so the
// daemon runs end to end without graphics hardware.
package render
