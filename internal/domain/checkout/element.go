package checkout

// ElementKind identifies one of the three embedded payment-processor widgets
// the checkout form coordinates.
type ElementKind string

const (
	ElementAuth    ElementKind = "auth"
	ElementAddress ElementKind = "address"
	ElementPayment ElementKind = "payment"
)

// Valid reports whether the kind names a known element.
func (k ElementKind) Valid() bool {
	switch k {
	case ElementAuth, ElementAddress, ElementPayment:
		return true
	}
	return false
}

// ElementState is the lifecycle of an embedded widget within one mount
// generation. Transitions are monotonic: Unmounted -> Mounting -> Ready.
// A remount resets the element to Unmounted under a new generation.
type ElementState string

const (
	ElementUnmounted ElementState = "unmounted"
	ElementMounting  ElementState = "mounting"
	ElementReady     ElementState = "ready"
)

// Element tracks a single widget's lifecycle and the mount generation it
// belongs to. Ready signals from stale generations are ignored.
type Element struct {
	Kind       ElementKind  `json:"kind"`
	State      ElementState `json:"state"`
	Generation int          `json:"generation"`
}

// Remount resets the element to Unmounted under the given generation.
func (e *Element) Remount(generation int) {
	e.State = ElementUnmounted
	e.Generation = generation
}

// Mounting marks the element as mounting for the given generation.
// Signals for a different generation are dropped.
func (e *Element) Mounting(generation int) bool {
	if generation != e.Generation || e.State == ElementReady {
		return false
	}
	e.State = ElementMounting
	return true
}

// MarkReady marks the element ready for the given generation. It returns
// false for stale generations and for repeated ready signals.
func (e *Element) MarkReady(generation int) bool {
	if generation != e.Generation || e.State == ElementReady {
		return false
	}
	e.State = ElementReady
	return true
}

// IsReady reports whether the element reported ready in its current
// generation.
func (e *Element) IsReady() bool {
	return e.State == ElementReady
}
