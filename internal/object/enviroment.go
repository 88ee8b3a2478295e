package object

// Environment stores i32 slots by name: the globals of a module, or the
// params and locals of one call.
type Environment struct {
	store map[string]int32
}

// NewEnvironment creates an empty environment
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]int32)}
}

// Declare creates name with an initial value.
func (e *Environment) Declare(name string, val int32) {
	e.store[name] = val
}

// Get looks up a slot by name
func (e *Environment) Get(name string) (int32, bool) {
	val, ok := e.store[name]
	return val, ok
}

// Set updates an existing slot. It reports false when name was never
// declared.
func (e *Environment) Set(name string, val int32) bool {
	if _, ok := e.store[name]; !ok {
		return false
	}
	e.store[name] = val
	return true
}

// Has reports whether name is declared
func (e *Environment) Has(name string) bool {
	_, ok := e.store[name]
	return ok
}
