package ecs

import (
	"iter"
	"reflect"
)

// iComponentStorage is a type-erased column of component values. Each
// archetype holds one per component type, index-aligned with every other
// column in that archetype.
type iComponentStorage interface {
	Append(item any) int
	Delete(index int)
	Get(index int) any
	Has(index int) bool
	Count() int
	Compact() map[int]int
	Iter() iter.Seq[int]
}

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage instance has its own ComponentRegistry, allowing multiple
// independent ECS systems to coexist without interference.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a component type with the given registry.
// Every component type must be registered before an entity carrying it is
// spawned.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r.factories[t] = func() iComponentStorage {
		return &componentStore[T]{}
	}
}

// getFactory returns the factory for a component type, or nil if the type
// was never registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

const storeBlockSize = 64

// componentStore stores components of type T in fixed-size blocks. Blocks are
// never moved once allocated, so pointers returned by Get stay valid until
// Compact is called. Deleted slots are recycled on the next Append.
type componentStore[T any] struct {
	blocks    [][storeBlockSize]T
	filled    [][storeBlockSize]bool
	freeSlots []int
	nextIndex int
}

// Append adds a component and returns the index it was stored at.
func (cs *componentStore[T]) Append(item any) int {
	var value T
	switch v := item.(type) {
	case *T:
		value = *v
	case T:
		value = v
	default:
		return -1
	}

	index := cs.nextIndex
	if n := len(cs.freeSlots); n > 0 {
		index = cs.freeSlots[n-1]
		cs.freeSlots = cs.freeSlots[:n-1]
	} else {
		cs.nextIndex++
		if index/storeBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, [storeBlockSize]T{})
			cs.filled = append(cs.filled, [storeBlockSize]bool{})
		}
	}

	cs.blocks[index/storeBlockSize][index%storeBlockSize] = value
	cs.filled[index/storeBlockSize][index%storeBlockSize] = true
	return index
}

// Get returns a pointer to the component at index, or nil if the slot is
// empty or out of range.
func (cs *componentStore[T]) Get(index int) any {
	if index < 0 || index/storeBlockSize >= len(cs.blocks) {
		return nil
	}
	if !cs.filled[index/storeBlockSize][index%storeBlockSize] {
		return nil
	}
	return &cs.blocks[index/storeBlockSize][index%storeBlockSize]
}

// Delete marks the slot at index as empty and queues it for reuse.
func (cs *componentStore[T]) Delete(index int) {
	if index < 0 || index/storeBlockSize >= len(cs.blocks) {
		return
	}
	blockIdx, slotIdx := index/storeBlockSize, index%storeBlockSize
	if cs.filled[blockIdx][slotIdx] {
		cs.filled[blockIdx][slotIdx] = false
		var zero T
		cs.blocks[blockIdx][slotIdx] = zero
		cs.freeSlots = append(cs.freeSlots, index)
	}
}

// Has reports whether a component exists at index.
func (cs *componentStore[T]) Has(index int) bool {
	if index < 0 || index/storeBlockSize >= len(cs.blocks) {
		return false
	}
	return cs.filled[index/storeBlockSize][index%storeBlockSize]
}

// Count returns the number of live components in the store.
func (cs *componentStore[T]) Count() int {
	return cs.nextIndex - len(cs.freeSlots)
}

// Compact rewrites the store without holes and returns the old-index to
// new-index mapping. All previously returned pointers are invalidated.
func (cs *componentStore[T]) Compact() map[int]int {
	indexMap := make(map[int]int)

	total := cs.nextIndex - len(cs.freeSlots)
	if total == 0 {
		cs.blocks = make([][storeBlockSize]T, 1)
		cs.filled = make([][storeBlockSize]bool, 1)
		cs.freeSlots = nil
		cs.nextIndex = 0
		return indexMap
	}

	numBlocks := (total + storeBlockSize - 1) / storeBlockSize
	newBlocks := make([][storeBlockSize]T, numBlocks)
	newFilled := make([][storeBlockSize]bool, numBlocks)

	writePos := 0
	for readIdx := 0; readIdx < cs.nextIndex; readIdx++ {
		if !cs.filled[readIdx/storeBlockSize][readIdx%storeBlockSize] {
			continue
		}
		indexMap[readIdx] = writePos
		newBlocks[writePos/storeBlockSize][writePos%storeBlockSize] = cs.blocks[readIdx/storeBlockSize][readIdx%storeBlockSize]
		newFilled[writePos/storeBlockSize][writePos%storeBlockSize] = true
		writePos++
	}

	cs.blocks = newBlocks
	cs.filled = newFilled
	cs.freeSlots = nil
	cs.nextIndex = writePos
	return indexMap
}

// Iter yields the indices of all live components in ascending order.
func (cs *componentStore[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < cs.nextIndex; i++ {
			if i/storeBlockSize >= len(cs.filled) {
				continue
			}
			if cs.filled[i/storeBlockSize][i%storeBlockSize] {
				if !yield(i) {
					return
				}
			}
		}
	}
}
