package driven

// ConfigStore is a flat key/value view over the settings file.
//
// Keys are dotted paths into the file's tables, so "llm.provider" names
// provider under [llm]. The typed getters return the zero value when a
// key is absent or holds another type; GetFloat also accepts integers.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set updates a key and writes the store back immediately.
	Set(key string, value any) error

	Save() error

	// Load discards in-memory values and rereads the backing file.
	Load() error

	// Path is the backing file, or a placeholder for stores without one.
	Path() string
}
