// Package journal persists an append-only playback history in SQLite so
// operators can see what a display actually showed after the fact.
package journal
