// Package editor projects value trees onto forms.
//
// Project builds a Form for a descriptor.TypeDescriptor and a value tree: one
// Widget per standalone field and one Choice per real oneof group. Widgets
// never mutate the tree they were given; each edit produces a new tree and
// passes it to the form's change callback.
//
// Session ties schema text, message type, value tree and form together and
// applies schema loads last-write-wins:
//
//	s := editor.NewSession(editor.WithLogger(logger))
//	t := s.Begin(text)
//	go func() { parsed, err := s.Load(t); results <- result{t, parsed, err} }()
//	...
//	s.Apply(r.t, r.parsed, r.err) // false when a newer Begin happened
package editor
