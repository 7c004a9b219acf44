// Package logging provides slog construction helpers, shared attribute
// constructors, and the standardized field keys used across marquee
// components.
package logging
