// Package gpu is the backend-agnostic GPU abstraction: declarative resource
// descriptions, reference-counted handles, and the Device (creation) and
// Context (binding, drawing, mapping) contracts that a native backend
// implements. Scene code only sees these interfaces.
package gpu

// Object is the reference-count capability every GPU object carries.
type Object interface {
	AddRef() int
	Release() int
}

// RefCount is an embeddable Object implementation. The free hook runs once,
// when the count drops to zero.
type RefCount struct {
	refs   int
	onFree func()
}

// InitRef sets the count to one (the creation reference) and installs the
// free hook.
func (r *RefCount) InitRef(onFree func()) {
	r.refs = 1
	r.onFree = onFree
}

func (r *RefCount) AddRef() int {
	r.refs++
	return r.refs
}

func (r *RefCount) Release() int {
	if r.refs <= 0 {
		return 0
	}
	r.refs--
	if r.refs == 0 && r.onFree != nil {
		free := r.onFree
		r.onFree = nil
		free()
	}
	return r.refs
}

// Refs returns the current count.
func (r *RefCount) Refs() int { return r.refs }

// Ptr is a shared-ownership handle to a GPU object.
//
// A Ptr obtained from Own or Share holds one reference and must be Reset by
// its holder. Copying a Ptr by assignment does not add a reference; the
// copy is a borrowed alias and must not be Reset.
type Ptr[T Object] struct {
	obj   T
	valid bool
}

// Own adopts the creation reference of obj. A nil obj yields a null Ptr.
func Own[T Object](obj T) Ptr[T] {
	if any(obj) == nil {
		return Ptr[T]{}
	}
	return Ptr[T]{obj: obj, valid: true}
}

// Get returns the referenced object, or the zero T for a null Ptr.
func (p Ptr[T]) Get() T { return p.obj }

func (p Ptr[T]) IsNull() bool { return !p.valid }

// Share returns a new owning Ptr to the same object.
func (p Ptr[T]) Share() Ptr[T] {
	if p.valid {
		p.obj.AddRef()
	}
	return p
}

// Reset releases the held reference and makes p null.
func (p *Ptr[T]) Reset() {
	if !p.valid {
		return
	}
	p.obj.Release()
	var zero T
	p.obj = zero
	p.valid = false
}
