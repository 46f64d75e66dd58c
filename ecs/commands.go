package ecs

import "reflect"

// Commands buffers structural ECS operations until the end of the frame.
// Systems never mutate archetype membership directly; deferring spawns,
// deletes and migrations keeps query caches valid while systems (possibly
// concurrently) iterate them.
//
// Commands methods are not safe for concurrent use; a parallel system that
// needs to queue commands must do so from a sequential phase or guard its own
// access.
type Commands struct {
	spawns  []spawnCommand
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Defer queues an arbitrary function to run at flush time, after all
// structural changes have been applied.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Delete queues an entity deletion operation.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{entity: entity, component: component})
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{entity: entity, compType: compType})
}

// Flush applies all queued commands to the storage and resets the buffer.
// Deletes run first so migrations and adds against deleted entities are
// dropped; deferred functions run last. Component migrations change an
// entity's id, so commands queued against the pre-migration id are remapped
// to wherever the entity moved.
func (c *Commands) Flush(storage *Storage) {
	deleted := make(map[EntityId]bool)
	moved := make(map[EntityId]EntityId)

	resolve := func(id EntityId) EntityId {
		for {
			next, ok := moved[id]
			if !ok {
				return id
			}
			id = next
		}
	}

	for _, id := range c.deletes {
		storage.Delete(id)
		deleted[id] = true
	}

	for _, cmd := range c.removes {
		if deleted[cmd.entity] {
			continue
		}
		id := resolve(cmd.entity)
		if newId := storage.RemoveComponent(id, cmd.compType); newId != id {
			moved[id] = newId
		}
	}

	for _, cmd := range c.adds {
		if deleted[cmd.entity] {
			continue
		}
		id := resolve(cmd.entity)
		if newId := storage.AddComponent(id, cmd.component); newId != id {
			moved[id] = newId
		}
	}

	for _, cmd := range c.spawns {
		storage.Spawn(cmd.components...)
	}

	for _, fn := range c.defers {
		fn()
	}

	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
