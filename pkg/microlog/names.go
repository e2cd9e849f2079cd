package microlog

// DefaultStoreName is used when no usable store name is configured.
const DefaultStoreName = "microlog"

// ResolveStoreName returns name when it is non-empty and shorter than 32
// bytes, and DefaultStoreName otherwise. It applies to configured names
// only; LogLoader.SetRecordStoreName takes a name as given.
func ResolveStoreName(name string) string {
	if len(name) > 0 && len(name) < 32 {
		return name
	}
	return DefaultStoreName
}
