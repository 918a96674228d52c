package driven

// ConfigStore is the flat key/value view of the settings file. Keys use dot
// notation ("rewrite.max_retries"); missing or mistyped values read as the
// zero value so the settings service can apply its own defaults.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set, so callers can
	// tell an explicit zero from an unset key.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// Set stores a value and persists it before returning.
	Set(key string, value any) error

	// Delete removes a key. Removing a missing key is not an error.
	Delete(key string) error

	// Save persists the current values.
	Save() error
}
