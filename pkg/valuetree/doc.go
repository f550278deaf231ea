// Package valuetree holds the in-memory value edited by a form: a tree keyed
// by field name whose leaves are scalars and whose inner nodes are nested
// trees (messages) and lists (repeated fields).
//
// Trees are treated as immutable values. With, Without and the List helpers
// return new containers and leave their receiver untouched, so a host can
// keep references to earlier states.
package valuetree
