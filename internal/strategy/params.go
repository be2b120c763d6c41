package strategy

// Params is a configuration map of strategy-specific options. Unrecognized
// keys are ignored; missing keys fall back to the documented defaults of
// the strategy reading them.
type Params map[string]interface{}

// Float returns the named parameter as a float64, or def when absent or
// of an unexpected type.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// Int returns the named parameter as an int, or def when absent or of an
// unexpected type.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
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
	}
	return def
}

// String returns the named parameter as a string, or def when absent.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}
