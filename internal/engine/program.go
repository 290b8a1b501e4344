package engine

import "fmt"

// SiteID identifies one syntactic recurrence site within a program.
// Site ids are assigned once, in declaration order, and never depend on
// call-stack position.
type SiteID uint32

// Site is a typed handle for one recurrence site. Sites are allocated on a
// Program before any round runs; because every program point holds its own
// Site value, two distinct points can never collide on state, and reusing
// one site under different partition keys is only possible through
// WithPartition.
type Site[T any] struct {
	id   SiteID
	name string
}

// Field is a typed handle for one named slot of a device's export.
// Like sites, fields are allocated once per program point.
type Field[T any] struct {
	name string
}

// Name returns the export slot name of the field.
func (f Field[T]) Name() string { return f.name }

// Program is a device-local computation evaluated once per round. It owns
// the site and field namespaces and the round body. The same Program value
// is shared by every device of a network; all per-device state lives on the
// devices themselves.
type Program struct {
	name     string
	body     func(*Context)
	nextSite SiteID
	fields   map[string]struct{}
}

// NewProgram creates an empty program with the given name.
func NewProgram(name string) *Program {
	return &Program{
		name:   name,
		fields: make(map[string]struct{}),
	}
}

// Name returns the program name.
func (p *Program) Name() string { return p.name }

// Define installs the round body. Must be called before the program is run.
func (p *Program) Define(body func(*Context)) {
	p.body = body
}

// NewSite allocates a recurrence site on the program. Call once per program
// point, at construction time.
func NewSite[T any](p *Program, name string) Site[T] {
	id := p.nextSite
	p.nextSite++
	return Site[T]{id: id, name: name}
}

// NewField allocates an export field on the program. Field names are the
// alignment key between a producer's export and its receivers, so a
// duplicate name is a construction-time programming error and panics.
func NewField[T any](p *Program, name string) Field[T] {
	if _, dup := p.fields[name]; dup {
		panic(fmt.Sprintf("engine: duplicate export field %q in program %q", name, p.name))
	}
	p.fields[name] = struct{}{}
	return Field[T]{name: name}
}
