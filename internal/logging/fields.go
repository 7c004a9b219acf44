package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags log records with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step when something fails.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldMediaID is the standardized key for media item identifiers.
	FieldMediaID = "media_id"
	// FieldScheduleID is the standardized key for schedule identifiers.
	FieldScheduleID = "schedule_id"
	// FieldPlayerID is the standardized key for the registered player identifier.
	FieldPlayerID = "player_id"
	// FieldSessionID is the standardized key for the daemon session identifier.
	FieldSessionID = "session_id"
)
