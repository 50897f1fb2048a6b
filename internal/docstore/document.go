package docstore

// Document is one loosely-typed record read from a collection. Getters are
// tolerant: a missing or mistyped field yields the zero value rather than an
// error, so individual decode problems never fail a whole snapshot.
type Document struct {
	ID     string
	fields map[string]any
}

// NewDocument builds a Document from raw fields, mainly for tests.
func NewDocument(id string, fields map[string]any) Document {
	return Document{ID: id, fields: fields}
}

// String returns the named field as a string, or "" when absent.
func (d Document) String(key string) string {
	if v, ok := d.fields[key].(string); ok {
		return v
	}
	return ""
}

// Int64 returns the named field as an int64, or 0 when absent. JSON numbers
// arrive as float64.
func (d Document) Int64(key string) int64 {
	switch v := d.fields[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Has reports whether the named field is present.
func (d Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}
