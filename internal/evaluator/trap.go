package evaluator

// Trap aborts execution. Func names the function that trapped when known.
type Trap struct {
	Func    string
	Message string
}

func (t *Trap) Error() string {
	return t.Message
}
