// Package config provides a small JSON-configuration-map helper used to
// declare stores and databases at startup.
package config

import "fmt"

// Obj is a configuration map, typically decoded from JSON or YAML.
//
// Accessors accumulate errors rather than panicking or returning them
// individually, so a config block can be validated in one pass with
// Validate.
type Obj struct {
	values map[string]interface{}
	errs   []error
	known  map[string]bool
}

// New wraps a decoded map as a config Obj.
func New(values map[string]interface{}) *Obj {
	if values == nil {
		values = make(map[string]interface{})
	}
	return &Obj{values: values, known: make(map[string]bool)}
}

func (o *Obj) note(key string) {
	if o.known == nil {
		o.known = make(map[string]bool)
	}
	o.known[key] = true
}

func (o *Obj) fail(err error) {
	o.errs = append(o.errs, err)
}

// RequiredString returns the string at key, recording an error if absent
// or of the wrong type.
func (o *Obj) RequiredString(key string) string {
	o.note(key)
	v, ok := o.values[key]
	if !ok {
		o.fail(fmt.Errorf("config: missing required key %q", key))
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.fail(fmt.Errorf("config: key %q must be a string", key))
		return ""
	}
	return s
}

// OptionalString returns the string at key, or def if absent.
func (o *Obj) OptionalString(key, def string) string {
	o.note(key)
	v, ok := o.values[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		o.fail(fmt.Errorf("config: key %q must be a string", key))
		return def
	}
	return s
}

// OptionalInt returns the int at key, or def if absent.
func (o *Obj) OptionalInt(key string, def int) int {
	o.note(key)
	v, ok := o.values[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		o.fail(fmt.Errorf("config: key %q must be a number", key))
		return def
	}
}

// OptionalBool returns the bool at key, or def if absent.
func (o *Obj) OptionalBool(key string, def bool) bool {
	o.note(key)
	v, ok := o.values[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		o.fail(fmt.Errorf("config: key %q must be a bool", key))
		return def
	}
	return b
}

// Validate returns a joined error for every unknown key and every
// accumulated access error.
func (o *Obj) Validate() error {
	var errs []error
	errs = append(errs, o.errs...)
	for key := range o.values {
		if !o.known[key] {
			errs = append(errs, fmt.Errorf("config: unknown key %q", key))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	joined := errs[0]
	for _, e := range errs[1:] {
		joined = fmt.Errorf("%w; %w", joined, e)
	}
	return joined
}
