// Package builder provides a fluent API for composing task trees
//
// A builder describes a root task, its subtasks, and any progress notes to
// record once the tree exists. Build produces the wire request for the tree,
// while Submit creates it through a client and back-fills the notes
package builder
