// Package bridge keeps the push channel to the CMS alive: a WebSocket
// session that announces the player, relays server pushes as events,
// and carries heartbeats and status reports back.
package bridge
