// Package mediacache downloads schedule media into a local directory so
// playback never depends on the network. Cache keys combine the media id
// with the source filename; downloads go through a temp file and rename
// so partial files never surface as playable entries.
package mediacache
