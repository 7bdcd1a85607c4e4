package phpxx

import "sort"

// FunctionEntry locates a user function inside the flat statement list.
type FunctionEntry struct {
	Name   string
	Entry  int
	Params []string
	Span   Span
}

// FunctionTable maps function names to their entry points. It is filled in
// at parse time and only read while a program runs.
type FunctionTable struct {
	entries map[string]FunctionEntry
}

func newFunctionTable() *FunctionTable {
	return &FunctionTable{entries: make(map[string]FunctionEntry)}
}

// Register inserts the entry, replacing any earlier declaration of the same
// name.
func (t *FunctionTable) Register(name string, entry int, params []string) {
	t.register(FunctionEntry{Name: name, Entry: entry, Params: append([]string(nil), params...)})
}

func (t *FunctionTable) register(fn FunctionEntry) {
	t.entries[fn.Name] = fn
}

func (t *FunctionTable) Lookup(name string) (FunctionEntry, bool) {
	fn, ok := t.entries[name]
	return fn, ok
}

func (t *FunctionTable) Len() int {
	return len(t.entries)
}

// Names returns the declared function names in sorted order.
func (t *FunctionTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
