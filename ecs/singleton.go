package ecs

import (
	"reflect"
	"unsafe"
)

// Singleton provides access to a single component instance that is not
// associated with any entity. Use this for world-wide state such as bounds or
// configuration. Reading a singleton that was never added yields nil from Get
// and false from Exists; callers that require the value must treat that as a
// setup error.
type Singleton[T any] struct {
	storage       *Storage
	componentPtr  unsafe.Pointer
	componentType reflect.Type
}

// NewSingleton creates a Singleton accessor for the given storage. If an
// initializer is provided and the singleton doesn't exist yet, it is created
// with that value, guaranteeing the singleton exists after the call. Without
// an initializer the accessor may point at nothing until someone else adds
// the value.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	var zero T
	componentType := reflect.TypeOf(zero)

	entry := storage.getSingletonEntry(componentType)
	if entry == nil && len(initializer) > 0 {
		storage.AddSingleton(initializer[0])
		entry = storage.getSingletonEntry(componentType)
	}

	s := &Singleton[T]{
		storage:       storage,
		componentType: componentType,
	}
	if entry != nil {
		s.componentPtr = entry.dataPtr
	}
	return s
}

// Init initializes the Singleton with a storage reference.
// Called automatically by the Scheduler during system registration.
func (s *Singleton[T]) Init(storage *Storage) {
	var zero T
	s.storage = storage
	s.componentType = reflect.TypeOf(zero)
	s.updateCache()
}

// Get returns a pointer to the singleton component, or nil if the singleton
// has not been added to storage.
func (s *Singleton[T]) Get() *T {
	if s.componentPtr == nil {
		s.updateCache()
	}
	if s.componentPtr == nil {
		return nil
	}
	return (*T)(s.componentPtr)
}

// updateCache refreshes the cached pointer from storage.
func (s *Singleton[T]) updateCache() {
	if s.storage == nil {
		return
	}
	if entry := s.storage.getSingletonEntry(s.componentType); entry != nil {
		s.componentPtr = entry.dataPtr
	} else {
		s.componentPtr = nil
	}
}

// Exists returns true if the singleton component has been added to storage.
func (s *Singleton[T]) Exists() bool {
	if s.componentPtr == nil {
		s.updateCache()
	}
	return s.componentPtr != nil
}
