// Package schedule defines the snapshot data model the player syncs against:
// media items, change fingerprints, and the persisted last-known-good
// snapshot used when the CMS is unreachable.
package schedule
