package osslerr

import "strings"

// maxLibraryID is the largest library id any code layout can carry.
const maxLibraryID = 0xFF

// Library is a library id and the name the backend registered for it.
type Library struct {
	ID   int
	Name string
}

// Libraries lists every library the backend has a name for, by id.
func (b *Binding) Libraries() []Library {
	b.backend.Init()

	var libs []Library
	for id := 1; id <= maxLibraryID; id++ {
		name, ok := b.backend.LibErrorString(b.backend.Pack(id, 0, 0))
		if !ok {
			continue
		}
		name, _ = checked(name, ok, "library name")
		libs = append(libs, Library{ID: id, Name: name})
	}
	return libs
}

// LookupLibrary finds a library by name, ignoring case.
func (b *Binding) LookupLibrary(name string) (Library, bool) {
	name = strings.TrimSpace(name)
	for _, lib := range b.Libraries() {
		if strings.EqualFold(lib.Name, name) {
			return lib, true
		}
	}
	return Library{}, false
}
