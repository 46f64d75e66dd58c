package ecs

import (
	"iter"
	"reflect"
	"strings"
	"unsafe"
)

// View represents a selector over entities with a specific combination of
// components. The type T is a struct with pointer fields, one per component
// term. Field behavior is controlled by the `ecs` struct tag:
//
//   - no tag (or embedded field): required component, populated on match
//   - `ecs:"optional"`: populated when present, nil otherwise
//   - `ecs:"exclude"`: negative term; entities holding this component never
//     match, and the field is always nil
//   - `ecs:"readonly"`: the system promises not to write through the pointer
//     (checked by the scheduler when the system runs in parallel)
//
// "readonly" combines with "optional" (`ecs:"optional,readonly"`). It cannot
// combine with "exclude" since an excluded field is never populated.
type View[T any] struct {
	storage     *Storage
	types       []reflect.Type
	optional    []bool
	exclude     []bool
	readonly    []bool
	fieldOffset []uintptr

	// Archetype ID matching exactly the required component set, cached for
	// Spawn operations.
	cachedArchetypeId *uint32
}

// NewView creates a new view for the given struct type. Panics if T is not a
// struct of pointer fields or a tag value is invalid.
func NewView[T any](storage *Storage) *View[T] {
	var zero T
	structType := reflect.TypeOf(zero)

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{storage: storage}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types")
		}

		v.types = append(v.types, field.Type.Elem())
		v.fieldOffset = append(v.fieldOffset, field.Offset)

		var optional, exclude, readonly bool
		// Embedded fields (field.Anonymous) are always plain required terms.
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				for _, value := range strings.Split(tag, ",") {
					switch value {
					case "optional":
						optional = true
					case "exclude":
						exclude = true
					case "readonly":
						readonly = true
					default:
						panic("invalid ecs tag value: \"" + value + "\"")
					}
				}
			}
			if exclude && (optional || readonly) {
				panic("ecs tag \"exclude\" cannot be combined with other values")
			}
		}
		v.optional = append(v.optional, optional)
		v.exclude = append(v.exclude, exclude)
		v.readonly = append(v.readonly, readonly)
	}

	return v
}

// Fill populates the provided struct pointer with component data for the
// given entity. Returns false if the entity is missing a required component
// or holds an excluded one. Optional components are set to nil if absent.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	archetype, ok := v.storage.archetypes[id.ArchetypeId()]
	if !ok {
		return false
	}

	structPtr := unsafe.Pointer(ptr)

	for i := 0; i < len(v.types); i++ {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])

		if v.exclude[i] {
			if archetype.HasComponent(v.types[i]) {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		component := archetype.GetComponent(id.Index(), v.types[i])
		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		// Extract the data pointer from the interface without allocating.
		componentPtr := (*iface)(unsafe.Pointer(&component)).data
		*(*unsafe.Pointer)(fieldPtr) = componentPtr
	}

	return true
}

// Get returns a populated view struct for the given entity, or nil if the
// entity does not match the view's terms.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// GetRef returns a populated view struct for the given entity ref, or nil if invalid.
func (v *View[T]) GetRef(ref *EntityRef) *T {
	entityId, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}

	var result T
	if !v.Fill(entityId, &result) {
		return nil
	}
	return &result
}

// matchesArchetype checks whether an archetype satisfies all terms: required
// components present, excluded components absent. Optional terms always match.
func (v *View[T]) matchesArchetype(archetype *Archetype) bool {
	for i, typ := range v.types {
		if v.exclude[i] {
			if archetype.HasComponent(typ) {
				return false
			}
			continue
		}
		if v.optional[i] {
			continue
		}
		if !archetype.HasComponent(typ) {
			return false
		}
	}
	return true
}

// buildStorageIndices maps each view term to its column index within the
// archetype, -1 for absent optional and all excluded terms.
func (v *View[T]) buildStorageIndices(archetype *Archetype) []int {
	storageIndices := make([]int, len(v.types))
	for i, componentType := range v.types {
		storageIndices[i] = -1
		if v.exclude[i] {
			continue
		}
		for idx, archetypeType := range archetype.types {
			if archetypeType == componentType {
				storageIndices[i] = idx
				break
			}
		}
	}
	return storageIndices
}

func (v *View[T]) populateResult(resultPtr unsafe.Pointer, archetype *Archetype, entityIndex int, storageIndices []int) bool {
	for i, storageIdx := range storageIndices {
		fieldPtr := unsafe.Pointer(uintptr(resultPtr) + v.fieldOffset[i])

		if storageIdx == -1 {
			if v.optional[i] || v.exclude[i] {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}
			return false
		}

		component := archetype.storages[storageIdx].Get(entityIndex)
		if component == nil {
			if v.optional[i] {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}
			return false
		}

		componentPtr := (*iface)(unsafe.Pointer(&component)).data
		*(*unsafe.Pointer)(fieldPtr) = componentPtr
	}
	return true
}

// Iter returns an iterator over all entities matching the view's terms,
// yielding (EntityId, T) pairs with the populated view struct.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for archetypeId, archetype := range v.storage.archetypes {
			if !v.matchesArchetype(archetype) {
				continue
			}

			if len(archetype.storages) == 0 {
				continue
			}

			storageIndices := v.buildStorageIndices(archetype)
			firstStorage := archetype.storages[0]

			var result T
			resultPtr := unsafe.Pointer(&result)

			for entityIndex := range firstStorage.Iter() {
				if !v.populateResult(resultPtr, archetype, entityIndex, storageIndices) {
					continue
				}

				entityId := NewEntityId(archetypeId, uint32(entityIndex))
				if !yield(entityId, result) {
					return
				}
			}
		}
	}
}

// Values returns an iterator over just the view structs, without entity IDs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with components extracted from the view struct.
// Excluded fields take no part; nil required fields panic.
func (v *View[T]) Spawn(data T) EntityId {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.types))
	componentTypes := make([]reflect.Type, 0, len(v.types))
	for i := 0; i < len(v.types); i++ {
		if v.exclude[i] {
			continue
		}

		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		componentPtr := *(*unsafe.Pointer)(fieldPtr)

		if componentPtr == nil {
			if !v.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}

		componentType := v.types[i]
		component := reflect.NewAt(componentType, componentPtr).Elem().Interface()
		components = append(components, component)
		componentTypes = append(componentTypes, componentType)
	}

	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	sortedIndices := make([]int, len(componentTypes))
	for i := range sortedIndices {
		sortedIndices[i] = i
	}
	for i := range sortedIndices {
		for j := i + 1; j < len(sortedIndices); j++ {
			if componentTypes[sortedIndices[i]].String() > componentTypes[sortedIndices[j]].String() {
				sortedIndices[i], sortedIndices[j] = sortedIndices[j], sortedIndices[i]
			}
		}
	}

	sortedComponents := make([]any, len(components))
	sortedTypes := make([]reflect.Type, len(componentTypes))
	for i, idx := range sortedIndices {
		sortedComponents[i] = components[idx]
		sortedTypes[i] = componentTypes[idx]
	}

	var archetypeId uint32
	if v.cachedArchetypeId != nil && len(sortedTypes) == len(v.requiredTypes()) {
		archetypeId = *v.cachedArchetypeId
	} else {
		archetypeId = hashTypesToUint32(sortedTypes)
		if len(sortedTypes) == len(v.requiredTypes()) {
			v.cachedArchetypeId = &archetypeId
		}
	}

	archetype, exists := v.storage.archetypes[archetypeId]
	if !exists {
		archetype = NewArchetype(archetypeId, sortedTypes, v.storage.registry)
		v.storage.archetypes[archetypeId] = archetype
	}

	entityIndex := archetype.Spawn(sortedComponents)
	return NewEntityId(archetypeId, entityIndex)
}

// requiredTypes returns the required (non-optional, non-excluded) component types.
func (v *View[T]) requiredTypes() []reflect.Type {
	required := make([]reflect.Type, 0, len(v.types))
	for i, typ := range v.types {
		if !v.optional[i] && !v.exclude[i] {
			required = append(required, typ)
		}
	}
	return required
}

// writesComponents reports whether any populated term lacks a readonly
// promise. The scheduler uses this to validate parallel systems.
func (v *View[T]) writesComponents() bool {
	for i := range v.types {
		if v.exclude[i] {
			continue
		}
		if !v.readonly[i] {
			return true
		}
	}
	return false
}
