package referenceframe

import (
	"weak"

	"github.com/samber/lo"
)

// Observer is notified when the frame it is anchored to is destroyed or merged away. By the time
// FrameReassigned is called the tree has already moved the observer into to's observer list, and from
// is still intact so its states can be read.
type Observer interface {
	FrameReassigned(from, to *Frame)
}

// ObserverRef is a non-owning reference to an Observer. Frames only hold these, so an observer
// nothing else references can be collected while still anchored; its entry is dropped the next
// time the frame's observers are walked.
type ObserverRef interface {
	// Observer returns the referenced observer, or nil once it has been collected.
	Observer() Observer
}

type weakObserver[T any, PT interface {
	*T
	Observer
}] struct {
	ptr weak.Pointer[T]
}

func (w weakObserver[T, PT]) Observer() Observer {
	p := w.ptr.Value()
	if p == nil {
		return nil
	}
	return PT(p)
}

// WeakObserver returns a non-owning reference to o. References made from the same pointer compare
// equal.
func WeakObserver[T any, PT interface {
	*T
	Observer
}](o PT) ObserverRef {
	return weakObserver[T, PT]{weak.Make((*T)(o))}
}

// prune drops the entries of observers that have been collected.
func (f *Frame) prune() {
	f.observers = lo.Filter(f.observers, func(ref ObserverRef, _ int) bool {
		return ref.Observer() != nil
	})
}

// AddObserver anchors the observer behind ref to the frame. Adding an observer twice has no effect.
func (f *Frame) AddObserver(ref ObserverRef) {
	f.prune()
	if !lo.Contains(f.observers, ref) {
		f.observers = append(f.observers, ref)
	}
}

// RemoveObserver detaches o from the frame.
func (f *Frame) RemoveObserver(o Observer) {
	f.observers = lo.Filter(f.observers, func(ref ObserverRef, _ int) bool {
		live := ref.Observer()
		return live != nil && live != o
	})
}

// Observers returns the live observers anchored to the frame.
func (f *Frame) Observers() []Observer {
	f.prune()
	return lo.Map(f.observers, func(ref ObserverRef, _ int) Observer {
		return ref.Observer()
	})
}

// HasObserver reports whether o is anchored to the frame.
func (f *Frame) HasObserver(o Observer) bool {
	return lo.ContainsBy(f.observers, func(ref ObserverRef) bool {
		return ref.Observer() == o
	})
}

// reassignObservers moves every live observer of f to to and notifies it.
func (f *Frame) reassignObservers(to *Frame) {
	moved := f.observers
	f.observers = nil
	for _, ref := range moved {
		o := ref.Observer()
		if o == nil {
			continue
		}
		to.AddObserver(ref)
		o.FrameReassigned(f, to)
	}
}
