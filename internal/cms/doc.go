// Package cms implements the REST client for the content management
// server: registration, token refresh, schedule retrieval, and playback
// state reporting.
package cms
