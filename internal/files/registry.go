package files

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"qrdash/internal/models"
)

// Registry is an insertion-ordered name -> URL mapping.
type Registry struct {
	names []string
	urls  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{urls: make(map[string]string)}
}

func (r *Registry) Len() int { return len(r.names) }

func (r *Registry) Get(name string) (string, bool) {
	url, ok := r.urls[name]
	return url, ok
}

// Set adds or overwrites name. An overwritten entry keeps its position.
func (r *Registry) Set(name, url string) {
	if _, ok := r.urls[name]; !ok {
		r.names = append(r.names, name)
	}
	r.urls[name] = url
}

// Delete removes name and reports whether it was present.
func (r *Registry) Delete(name string) bool {
	if _, ok := r.urls[name]; !ok {
		return false
	}
	delete(r.urls, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Reset() {
	r.names = nil
	r.urls = make(map[string]string)
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Entries() []models.AppEntry {
	out := make([]models.AppEntry, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, models.AppEntry{Name: n, URL: r.urls[n]})
	}
	return out
}

// Encode renders the registry the way it is stored on disk: a flat JSON
// object indented by four spaces, in insertion order, "{}" when empty.
func (r *Registry) Encode() ([]byte, error) {
	if len(r.names) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteString("{\n")
	for i, n := range r.names {
		buf.WriteString("    ")
		if err := enc.Encode(n); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteString(": ")
		if err := enc.Encode(r.urls[n]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		if i < len(r.names)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeRegistry parses a stored registry, keeping the key order of data.
// A repeated key keeps its first position and its last value.
func DecodeRegistry(data []byte) (*Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("registry must be a JSON object")
	}

	reg := NewRegistry()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read registry: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var url string
		if err := dec.Decode(&url); err != nil {
			return nil, fmt.Errorf("url for %q: %w", name, err)
		}
		reg.Set(name, url)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after registry object")
	}
	return reg, nil
}
