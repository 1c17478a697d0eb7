// Package history implements the edit history manager of a document.
//
// The manager keeps a strictly linear timeline: recording an action after one
// or more undos drops the redo trail for good.
//
//	m := history.New()
//	m.Record(domain.Smooth())
//	m.Record(domain.Subdivide())
//
//	a, ok := m.Undo() // a is the subdivide action
//	a, ok = m.Redo()  // and back again
//
// Undo and Redo on an empty sequence are defined no-ops reporting ok == false.
package history
