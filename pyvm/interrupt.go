package pyvm

// Interrupt is yielded by VM.Run when the program finishes; Result is the
// final value per §4.VM ("the final result is the top of the value stack, or
// unit if empty").
type Interrupt struct {
	Done   bool
	Result any
}
