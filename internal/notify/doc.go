// Package notify sends operator alerts over ntfy for conditions that
// need human attention, with a noop fallback when no topic is set.
package notify
