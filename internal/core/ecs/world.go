package ecs

// World is the top-level ECS container. It owns the entity pool; component
// stores are owned by whoever registers them (world.State for agents).
type World struct {
	pool *EntityPool
}

func NewWorld() *World {
	return &World{pool: NewEntityPool(1)}
}

func (w *World) Pool() *EntityPool { return w.pool }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}
