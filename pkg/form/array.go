package form

import (
	"errors"
	"fmt"
	"strconv"

	internalpath "github.com/goliatone/go-formstate/internal/fieldpath"
	"github.com/goliatone/go-formstate/pkg/model"
)

// FieldArray manages an ordered, keyed collection of sub-records layered on
// top of the form's field paths. Every entry carries a stable key assigned
// when the entry is created and kept across reordering, so identity-based
// observers can follow an item through structural changes. Keys are never
// reused for a different logical item.
type FieldArray struct {
	form *Form
	path string
}

// Array returns the controller for the array at path. When the form carries
// a shape, the path must be declared as an array.
func (f *Form) Array(path string) (*FieldArray, error) {
	normalized := internalpath.Normalize(path)
	if normalized == "" {
		return nil, errors.New("form: array: empty path")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shape != nil {
		fieldType, ok := f.shape.TypeOf(normalized)
		if !ok {
			return nil, fmt.Errorf("form: array: path %q not declared in shape", normalized)
		}
		if fieldType != model.FieldTypeArray {
			return nil, fmt.Errorf("form: array: path %q declared as %q, not array", normalized, fieldType)
		}
	}
	f.ensureArrayLocked(normalized)
	return &FieldArray{form: f, path: normalized}, nil
}

// Len reports the number of entries.
func (a *FieldArray) Len() int {
	a.form.mu.Lock()
	defer a.form.mu.Unlock()
	return len(a.form.sliceLocked(a.path))
}

// Keys returns the stable key of every entry in order.
func (a *FieldArray) Keys() []string {
	a.form.mu.Lock()
	defer a.form.mu.Unlock()
	a.form.ensureArrayLocked(a.path)
	return append([]string(nil), a.form.arrayKeys[a.path]...)
}

// Append adds an item at the end.
func (a *FieldArray) Append(item any) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		return append(slice, item), append(keys, f.nextKeyLocked()), nil
	})
}

// Prepend adds an item at the front, shifting every entry up.
func (a *FieldArray) Prepend(item any) error {
	return a.Insert(0, item)
}

// Insert adds an item at index, shifting later entries up.
func (a *FieldArray) Insert(index int, item any) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		if index < 0 || index > len(slice) {
			return nil, nil, fmt.Errorf("form: array %q: insert index %d out of range", a.path, index)
		}
		slice = append(slice[:index], append([]any{item}, slice[index:]...)...)
		keys = append(keys[:index], append([]string{f.nextKeyLocked()}, keys[index:]...)...)
		f.shiftFieldsLocked(a.path, index, +1, b)
		return slice, keys, nil
	})
}

// Remove drops the entry at index, shifting later entries down. Any
// in-flight async validation for the removed entry's paths is discarded so a
// stale result cannot land on the item that takes over the index.
func (a *FieldArray) Remove(index int) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		if index < 0 || index >= len(slice) {
			return nil, nil, fmt.Errorf("form: array %q: remove index %d out of range", a.path, index)
		}
		f.dropEntryFieldsLocked(a.path, index, b)
		f.shiftFieldsLocked(a.path, index+1, -1, b)
		slice = append(slice[:index], slice[index+1:]...)
		keys = append(keys[:index], keys[index+1:]...)
		return slice, keys, nil
	})
}

// Swap exchanges the entries at i and j, keys included.
func (a *FieldArray) Swap(i, j int) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		if i < 0 || i >= len(slice) || j < 0 || j >= len(slice) {
			return nil, nil, fmt.Errorf("form: array %q: swap indices %d, %d out of range", a.path, i, j)
		}
		if i == j {
			return slice, keys, nil
		}
		slice[i], slice[j] = slice[j], slice[i]
		keys[i], keys[j] = keys[j], keys[i]
		f.remapEntryFieldsLocked(a.path, map[int]int{i: j, j: i}, b)
		return slice, keys, nil
	})
}

// Move relocates the entry at from to position to, shifting the entries in
// between.
func (a *FieldArray) Move(from, to int) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		if from < 0 || from >= len(slice) || to < 0 || to >= len(slice) {
			return nil, nil, fmt.Errorf("form: array %q: move indices %d, %d out of range", a.path, from, to)
		}
		if from == to {
			return slice, keys, nil
		}

		mapping := make(map[int]int)
		mapping[from] = to
		if from < to {
			for idx := from + 1; idx <= to; idx++ {
				mapping[idx] = idx - 1
			}
		} else {
			for idx := to; idx < from; idx++ {
				mapping[idx] = idx + 1
			}
		}

		item := slice[from]
		key := keys[from]
		slice = append(slice[:from], slice[from+1:]...)
		keys = append(keys[:from], keys[from+1:]...)
		slice = append(slice[:to], append([]any{item}, slice[to:]...)...)
		keys = append(keys[:to], append([]string{key}, keys[to:]...)...)

		f.remapEntryFieldsLocked(a.path, mapping, b)
		return slice, keys, nil
	})
}

// Update replaces the item at index, keeping its key. In-flight async
// validation for the entry is superseded and dirty flags are recomputed for
// its registered fields.
func (a *FieldArray) Update(index int, item any) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		if index < 0 || index >= len(slice) {
			return nil, nil, fmt.Errorf("form: array %q: update index %d out of range", a.path, index)
		}
		slice[index] = item
		entryPath := a.path + "." + strconv.Itoa(index)
		for _, path := range f.registeredPathsLocked() {
			if !internalpath.HasPrefix(path, entryPath) {
				continue
			}
			fs := f.fields[path]
			fs.seq++
			b.add(path)
		}
		return slice, keys, nil
	})
}

// Replace swaps the entire collection. Every entry receives a fresh key and
// all field records under the array are dropped, discarding in-flight async
// validation tied to the old entries.
func (a *FieldArray) Replace(items []any) error {
	return a.mutate(func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error) {
		for _, path := range f.registeredPathsLocked() {
			if _, ok := internalpath.IndexUnder(path, a.path); ok {
				f.dropFieldLocked(path, b)
			}
		}
		fresh := make([]string, len(items))
		for i := range items {
			fresh[i] = f.nextKeyLocked()
		}
		return append([]any(nil), items...), fresh, nil
	})
}

// mutate runs one structural operation under the form lock, recomputing
// dirty flags for the array's registered fields and publishing a single
// coalesced batch.
func (a *FieldArray) mutate(op func(f *Form, slice []any, keys []string, b *batch) ([]any, []string, error)) error {
	f := a.form
	b := newBatch()

	f.mu.Lock()
	f.ensureArrayLocked(a.path)
	slice := a.form.sliceLocked(a.path)
	keys := f.arrayKeys[a.path]

	newSlice, newKeys, err := op(f, slice, keys, b)
	if err != nil {
		f.mu.Unlock()
		return err
	}

	if err := internalpath.Set(f.values, a.path, newSlice); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("form: array %q: %w", a.path, err)
	}
	f.arrayKeys[a.path] = newKeys
	b.add(a.path)
	f.refreshDirtyUnderLocked(a.path, b)
	f.mu.Unlock()
	f.publish(b)
	return nil
}

// ensureArrayLocked makes sure the value and key slices exist and agree on
// length, assigning keys to entries that arrived through defaults or Reset.
func (f *Form) ensureArrayLocked(path string) {
	slice := f.sliceLocked(path)
	keys := f.arrayKeys[path]
	for len(keys) < len(slice) {
		keys = append(keys, f.nextKeyLocked())
	}
	if len(keys) > len(slice) {
		keys = keys[:len(slice)]
	}
	f.arrayKeys[path] = keys
}

func (f *Form) sliceLocked(path string) []any {
	value, ok := internalpath.Get(f.values, path)
	if !ok {
		return nil
	}
	slice, _ := value.([]any)
	return slice
}

func (f *Form) nextKeyLocked() string {
	f.keySeq++
	return "k" + strconv.FormatUint(f.keySeq, 10)
}

// dropEntryFieldsLocked removes the field records under one array entry.
func (f *Form) dropEntryFieldsLocked(arrayPath string, index int, b *batch) {
	entryPath := arrayPath + "." + strconv.Itoa(index)
	for _, path := range f.registeredPathsLocked() {
		if internalpath.HasPrefix(path, entryPath) {
			f.dropFieldLocked(path, b)
		}
	}
}

func (f *Form) dropFieldLocked(path string, b *batch) {
	fs, ok := f.fields[path]
	if !ok {
		return
	}
	fs.seq++ // discard in-flight async results
	delete(f.fields, path)
	b.add(path)
}

// shiftFieldsLocked renames the field records of every entry at or beyond
// start by delta positions, carrying dirty/touched/error state with the
// logical item.
func (f *Form) shiftFieldsLocked(arrayPath string, start, delta int, b *batch) {
	mapping := make(map[int]int)
	for _, path := range f.registeredPathsLocked() {
		idx, ok := internalpath.IndexUnder(path, arrayPath)
		if !ok || idx < start {
			continue
		}
		mapping[idx] = idx + delta
	}
	f.remapEntryFieldsLocked(arrayPath, mapping, b)
}

// remapEntryFieldsLocked applies an old-index to new-index mapping to the
// field records under an array path. Records move atomically so renames in
// either direction cannot clobber each other.
func (f *Form) remapEntryFieldsLocked(arrayPath string, mapping map[int]int, b *batch) {
	if len(mapping) == 0 {
		return
	}

	moved := make(map[string]*fieldState)
	for _, path := range f.registeredPathsLocked() {
		idx, ok := internalpath.IndexUnder(path, arrayPath)
		if !ok {
			continue
		}
		newIdx, ok := mapping[idx]
		if !ok {
			continue
		}
		fs := f.fields[path]
		delete(f.fields, path)
		newPath := internalpath.Reindex(path, arrayPath, newIdx)
		fs.path = newPath
		moved[newPath] = fs
		b.add(path)
		b.add(newPath)
	}
	for path, fs := range moved {
		f.fields[path] = fs
	}
}

// refreshDirtyUnderLocked recomputes dirty flags for registered fields under
// a prefix after a structural change moved values beneath them.
func (f *Form) refreshDirtyUnderLocked(prefix string, b *batch) {
	for _, path := range f.registeredPathsLocked() {
		if !internalpath.HasPrefix(path, prefix) || path == prefix {
			continue
		}
		fs := f.fields[path]
		value, _ := internalpath.Get(f.values, path)
		dirty := !valuesEqual(value, f.defaultAt(path))
		if fs.dirty != dirty {
			fs.dirty = dirty
			b.add(path)
		}
	}
}
