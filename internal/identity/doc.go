// Package identity persists the player's registration credentials and
// device descriptor under the data directory.
package identity
