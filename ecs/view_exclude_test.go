package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/spritesim/ecs"
	"github.com/stretchr/testify/assert"
)

func TestViewExclude(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	plain := storage.Spawn(&Position{X: 1, Y: 1})
	withHealth := storage.Spawn(&Position{X: 2, Y: 2}, &Health{Current: 10, Max: 10})
	withAI := storage.Spawn(&Position{X: 3, Y: 3}, &AI{State: 1})

	view := ecs.NewView[struct {
		Position *Position
		AI       *AI `ecs:"exclude"`
	}](storage)

	entities := make(map[ecs.EntityId]bool)
	for id, item := range view.Iter() {
		entities[id] = true
		// Excluded fields are never populated.
		assert.Nil(t, item.AI)
	}

	assert.Equal(t, 2, len(entities))
	assert.True(t, entities[plain])
	assert.True(t, entities[withHealth])
	assert.False(t, entities[withAI])
}

func TestViewExcludeGet(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	plain := storage.Spawn(&Position{X: 1, Y: 1})
	withAI := storage.Spawn(&Position{X: 2, Y: 2}, &AI{State: 1})

	view := ecs.NewView[struct {
		Position *Position
		AI       *AI `ecs:"exclude"`
	}](storage)

	assert.NotNil(t, view.Get(plain))
	assert.Nil(t, view.Get(withAI))
}

func TestViewExcludeAfterMigration(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	id := storage.Spawn(&Position{X: 1, Y: 1})

	view := ecs.NewView[struct {
		Position *Position
		AI       *AI `ecs:"exclude"`
	}](storage)

	assert.NotNil(t, view.Get(id))

	// Adding the excluded component moves the entity out of the view.
	newId := storage.AddComponent(id, &AI{State: 2})
	assert.Nil(t, view.Get(newId))

	// Removing it brings the entity back.
	backId := storage.RemoveComponent(newId, reflect.TypeFor[AI]())
	assert.NotNil(t, view.Get(backId))
}

func TestViewExcludeCombinedTagPanics(t *testing.T) {

	defer func() {
		r := recover()
		assert.NotNil(t, r)
		assert.Contains(t, r.(string), "cannot be combined")
	}()

	storage := ecs.NewStorage(newTestRegistry())

	_ = ecs.NewView[struct {
		Position *Position
		AI       *AI `ecs:"exclude,optional"`
	}](storage)
}

func TestViewReadonlyTag(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	storage.Spawn(&Position{X: 7, Y: 8}, &Velocity{DX: 1, DY: 2})

	// readonly is a promise checked at scheduler registration; it does not
	// change what the view matches or populates.
	view := ecs.NewView[struct {
		Position *Position `ecs:"readonly"`
		Velocity *Velocity `ecs:"optional,readonly"`
	}](storage)

	count := 0
	for _, item := range view.Iter() {
		count++
		assert.NotNil(t, item.Position)
		assert.NotNil(t, item.Velocity)
		assert.Equal(t, float32(7), item.Position.X)
	}
	assert.Equal(t, 1, count)
}

func TestQueryExclude(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	storage.Spawn(&Position{X: 1, Y: 1}, &Velocity{DX: 0, DY: 0})
	marked := storage.Spawn(&Position{X: 2, Y: 2}, &Velocity{DX: 0, DY: 0}, &AI{State: 1})

	query := ecs.NewQuery[struct {
		Position *Position
		Velocity *Velocity
		AI       *AI `ecs:"exclude"`
	}](storage)

	query.Execute()
	assert.Equal(t, 1, query.Len())

	// Removing the excluded component makes the entity visible on the next
	// Execute.
	storage.RemoveComponent(marked, reflect.TypeFor[AI]())

	query.Execute()
	assert.Equal(t, 2, query.Len())
}

func TestQueryIterRange(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	for i := range 10 {
		storage.Spawn(&Position{X: float32(i), Y: 0}, &Velocity{DX: 1, DY: 1})
	}

	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](storage)
	query.Execute()

	assert.Equal(t, 10, query.Len())

	// Two disjoint halves visit every entity exactly once.
	seen := make(map[ecs.EntityId]int)
	for id := range query.IterRange(0, 5) {
		seen[id]++
	}
	for id := range query.IterRange(5, 10) {
		seen[id]++
	}

	assert.Equal(t, 10, len(seen))
	for id, n := range seen {
		assert.Equal(t, 1, n, "entity %d visited more than once", id)
	}

	// At returns the same pairs the ranges iterate.
	id0, item0 := query.At(0)
	for id, item := range query.IterRange(0, 1) {
		assert.Equal(t, id0, id)
		assert.Equal(t, item0.Position, item.Position)
	}
}

func TestQueryDeterministicOrder(t *testing.T) {

	storage := ecs.NewStorage(newTestRegistry())

	for i := range 100 {
		storage.Spawn(&Position{X: float32(i), Y: 0}, &Velocity{DX: 1, DY: 1})
	}

	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](storage)

	query.Execute()
	first := make([]ecs.EntityId, 0, query.Len())
	for id := range query.Iter() {
		first = append(first, id)
	}

	query.Execute()
	second := make([]ecs.EntityId, 0, query.Len())
	for id := range query.Iter() {
		second = append(second, id)
	}

	assert.Equal(t, first, second)
}
