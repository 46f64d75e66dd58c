package ecs

import "unsafe"

// iface mirrors the runtime layout of an interface{} so component pointers
// can be extracted without an allocation.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
