// Package state provides clocked registers and a manager that commits them
// together at the end of a cycle.
package state

// Clocked is a storage element that updates on the clock edge.
type Clocked interface {
	// Commit makes the staged value current.
	Commit()

	// Discard forgets the staged value.
	Discard()

	// Value returns the current value.
	Value() any
}

// Reg is a register holding a value of type T. Reads during a cycle always
// see the value committed at the previous edge.
type Reg[T any] struct {
	cur    T
	next   T
	staged bool
}

// NewReg creates a register with the given reset value.
func NewReg[T any](reset T) *Reg[T] {
	return &Reg[T]{cur: reset}
}

// Get returns the current value.
func (r *Reg[T]) Get() T {
	return r.cur
}

// Next returns the value staged for the coming edge. The first call in a
// cycle starts from a copy of the current value.
func (r *Reg[T]) Next() *T {
	if !r.staged {
		r.next = r.cur
		r.staged = true
	}

	return &r.next
}

// Set stages v for the coming edge.
func (r *Reg[T]) Set(v T) {
	*r.Next() = v
}

// Staged tells if a value is waiting for the clock edge.
func (r *Reg[T]) Staged() bool {
	return r.staged
}

// Commit makes the staged value current.
func (r *Reg[T]) Commit() {
	if !r.staged {
		return
	}

	r.cur = r.next
	r.staged = false
}

// Discard forgets the staged value.
func (r *Reg[T]) Discard() {
	var zero T
	r.next = zero
	r.staged = false
}

// Reset forces the current value and drops anything staged.
func (r *Reg[T]) Reset(v T) {
	r.cur = v
	r.Discard()
}

// Value returns the current value.
func (r *Reg[T]) Value() any {
	return r.cur
}
