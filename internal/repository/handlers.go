package repository

import "slices"

// HandlerTable is a HandlerRegistry backed by a fixed set of type tags.
type HandlerTable map[string]bool

// NewHandlerTable returns a table supporting the given types.
func NewHandlerTable(types ...string) HandlerTable {
	t := make(HandlerTable, len(types))
	for _, typ := range types {
		t[typ] = true
	}
	return t
}

// SupportsType reports whether typ has a registered handler.
func (t HandlerTable) SupportsType(typ string) bool {
	return t[typ]
}

// Types returns the supported types in sorted order.
func (t HandlerTable) Types() []string {
	var types []string
	for typ, ok := range t {
		if ok {
			types = append(types, typ)
		}
	}
	slices.Sort(types)
	return types
}
