// Package player sequences the circular media playlist on a renderer:
// images and text slides run for their configured duration, videos run
// until the renderer reports completion, and failing items are skipped
// so one bad file never stalls the loop.
package player
