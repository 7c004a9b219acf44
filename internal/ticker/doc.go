// Package ticker maintains the scrolling text overlay shown along the
// bottom of the display.
package ticker
