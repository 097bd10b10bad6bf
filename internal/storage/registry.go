package storage

// registry remembers what every realized object was built from: the CSV path
// for tables, the SQL text for views. Entries are never removed.
type registry struct {
	order        []string
	fingerprints map[string]string
}

func newRegistry() *registry {
	return &registry{fingerprints: make(map[string]string)}
}

func (r *registry) lookup(name string) (string, bool) {
	fp, ok := r.fingerprints[name]
	return fp, ok
}

func (r *registry) add(name, fingerprint string) {
	if _, ok := r.fingerprints[name]; ok {
		return
	}
	r.fingerprints[name] = fingerprint
	r.order = append(r.order, name)
}

func (r *registry) names() []string {
	return append([]string(nil), r.order...)
}
