// Package editor implements the Mark editor of §4.U1: in-place mutation
// of an already-built item tree (Inline mode), or structurally-shared,
// undoable mutation through a version chain (Copy-on-Write mode). Every
// shape change — adding, removing, or renaming a map key or element
// attribute — goes through a shapepool.Pool rather than mutating a shape
// in place, matching the invariant every builder already relies on
// (§3.4): two values with the same field list in the same order share
// one *Shape.
package editor

import (
	"fmt"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/shapepool"
)

// Mode selects how mutations are applied to the tree.
type Mode int

const (
	// Inline mutates containers in place. Cheapest, but earlier
	// snapshots of the tree are not preserved: there is nothing to
	// undo.
	Inline Mode = iota
	// CopyOnWrite rebuilds every container on the path from the root
	// to the mutated node, leaving everything off that path shared
	// with the previous version. Enables Commit/Undo/Redo.
	CopyOnWrite
)

// StepKind identifies what a Step addresses within its parent container.
type StepKind int

const (
	// MapField addresses a map's field by key.
	MapField StepKind = iota
	// ElementAttr addresses an element's attribute by name.
	ElementAttr
	// ElementChild addresses an element's child by index.
	ElementChild
	// ArrayIndex addresses an array or list element by index.
	ArrayIndex
)

// Step is one segment of a Path: a key into a map, an attribute name on
// an element, or an index into an element's children or an array/list.
type Step struct {
	Kind  StepKind
	Key   string
	Index int
}

// Path locates a container within the tree, read left-to-right from the
// root. An empty Path addresses the root itself.
type Path []Step

// Field is shorthand for a MapField step.
func Field(key string) Step { return Step{Kind: MapField, Key: key} }

// Attr is shorthand for an ElementAttr step.
func Attr(name string) Step { return Step{Kind: ElementAttr, Key: name} }

// ChildAt is shorthand for an ElementChild step.
func ChildAt(i int) Step { return Step{Kind: ElementChild, Index: i} }

// At is shorthand for an ArrayIndex step.
func At(i int) Step { return Step{Kind: ArrayIndex, Index: i} }

// Version is one node in the Copy-on-Write undo/redo chain.
type Version struct {
	label string
	root  item.Item
	prev  *Version
	next  *Version
}

// Label is the Commit message this version was recorded under.
func (v *Version) Label() string { return v.label }

// Root is this version's tree snapshot.
func (v *Version) Root() item.Item { return v.root }

// Editor mutates an item tree under either Inline or Copy-on-Write
// semantics. It owns the same kind of name/shape pools a parse's
// builder.Factory owns, since a shape-changing edit needs to intern a
// new field name or request a new deduplicated Shape exactly the way a
// parser's sub-builders do.
type Editor struct {
	factory *builder.Factory
	mode    Mode

	draft item.Item // the in-progress root, always current

	// chain is only populated in CopyOnWrite mode.
	chain   *Version
	current *Version
}

// New creates an Editor over root in the given mode. factory supplies the
// name/shape pools used by shape-changing operations (Insert, Delete,
// RenameField, RenameElement); pass the same Factory the tree was built
// with so that interned names keep sharing storage, or a fresh
// builder.NewFactory() when editing a standalone tree.
func New(factory *builder.Factory, root item.Item, mode Mode) *Editor {
	e := &Editor{factory: factory, mode: mode, draft: root}
	if mode == CopyOnWrite {
		e.resetChain(root)
	}
	return e
}

func (e *Editor) resetChain(root item.Item) {
	v := &Version{label: "initial", root: root}
	e.chain = v
	e.current = v
}

// SetMode switches the editor's mode. Switching to Inline drops the
// version chain entirely (§4.U1: there is no undo history once inline
// edits can alias the tree a reader might still be holding). Switching
// to CopyOnWrite starts a fresh single-version chain rooted at the
// current draft.
func (e *Editor) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	e.mode = m
	if m == Inline {
		e.chain = nil
		e.current = nil
		return
	}
	e.resetChain(e.draft)
}

// Mode reports the editor's current mode.
func (e *Editor) Mode() Mode { return e.mode }

// Current returns the editor's in-progress root: the live tree in
// Inline mode, or the uncommitted draft in CopyOnWrite mode.
func (e *Editor) Current() item.Item { return e.draft }

// Commit records the current draft as a new version, discarding any
// redo history beyond the version it was branched from. A no-op outside
// CopyOnWrite mode. Returns the new version.
func (e *Editor) Commit(label string) *Version {
	if e.mode != CopyOnWrite {
		return nil
	}
	v := &Version{label: label, root: e.draft, prev: e.current}
	e.current.next = v
	e.current = v
	return v
}

// Undo moves to the previous version, if any, and reports whether it
// moved.
func (e *Editor) Undo() bool {
	if e.mode != CopyOnWrite || e.current.prev == nil {
		return false
	}
	e.current = e.current.prev
	e.draft = e.current.root
	return true
}

// Redo moves to the next version, if any, and reports whether it moved.
func (e *Editor) Redo() bool {
	if e.mode != CopyOnWrite || e.current.next == nil {
		return false
	}
	e.current = e.current.next
	e.draft = e.current.root
	return true
}

// CurrentVersion returns the version the editor is positioned at, or
// nil outside CopyOnWrite mode.
func (e *Editor) CurrentVersion() *Version { return e.current }

// Version returns the nth version in the chain counting from the
// initial version at 0, or nil if n is out of range.
func (e *Editor) Version(n int) *Version {
	v := e.chain
	for i := 0; v != nil && i < n; i++ {
		v = v.next
	}
	return v
}

// ListVersions returns every version's label, from the initial version
// to the newest.
func (e *Editor) ListVersions() []string {
	var labels []string
	for v := e.chain; v != nil; v = v.next {
		labels = append(labels, v.label)
	}
	return labels
}

// mutator transforms the container found at a Path's end.
type mutator func(container item.Item) (item.Item, error)

// apply walks to path, applies fn, and splices the result back into the
// tree: in place for Inline mode, through a path-copy for CopyOnWrite.
func (e *Editor) apply(path Path, fn mutator) error {
	newRoot, err := e.applyAt(e.draft, path, fn)
	if err != nil {
		return err
	}
	e.draft = newRoot
	return nil
}

func (e *Editor) applyAt(cur item.Item, path Path, fn mutator) (item.Item, error) {
	if len(path) == 0 {
		return fn(cur)
	}
	step, rest := path[0], path[1:]
	switch step.Kind {
	case MapField:
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: path step %q is not a map", step.Key)
		}
		idx := fieldIndex(m.ShapePtr, step.Key)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such field %q", step.Key)
		}
		newChild, err := e.applyAt(m.Data[idx], rest, fn)
		if err != nil {
			return item.Item{}, err
		}
		return e.spliceMap(cur, m, idx, newChild), nil

	case ElementAttr:
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: path step @%q is not an element", step.Key)
		}
		idx := fieldIndex(el.ShapePtr, step.Key)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such attribute %q", step.Key)
		}
		newChild, err := e.applyAt(el.Attrs[idx], rest, fn)
		if err != nil {
			return item.Item{}, err
		}
		return e.spliceElementAttr(cur, el, idx, newChild), nil

	case ElementChild:
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: path step [%d] is not an element", step.Index)
		}
		if step.Index < 0 || step.Index >= len(el.Children) {
			return item.Item{}, fmt.Errorf("editor: child index %d out of range", step.Index)
		}
		newChild, err := e.applyAt(el.Children[step.Index], rest, fn)
		if err != nil {
			return item.Item{}, err
		}
		return e.spliceElementChild(cur, el, step.Index, newChild), nil

	case ArrayIndex:
		items, elemType, isList, ok := arrayItems(cur)
		if !ok {
			return item.Item{}, fmt.Errorf("editor: path step [%d] is not an array", step.Index)
		}
		if step.Index < 0 || step.Index >= len(items) {
			return item.Item{}, fmt.Errorf("editor: array index %d out of range", step.Index)
		}
		newChild, err := e.applyAt(items[step.Index], rest, fn)
		if err != nil {
			return item.Item{}, err
		}
		return e.spliceArray(cur, items, elemType, isList, step.Index, newChild), nil
	}
	return item.Item{}, fmt.Errorf("editor: unknown step kind %d", step.Kind)
}

// spliceMap stores newChild at idx. In Inline mode this mutates m's own
// Data slice and returns cur unchanged, so any other alias of cur
// observes the edit too. In CopyOnWrite mode it returns a fresh Map
// wrapping a copied Data slice, leaving m untouched.
func (e *Editor) spliceMap(cur item.Item, m *item.Map, idx int, newChild item.Item) item.Item {
	if e.mode == Inline {
		m.Data[idx] = newChild
		return cur
	}
	data := append([]item.Item(nil), m.Data...)
	data[idx] = newChild
	return item.NewMap(m.ShapePtr, data)
}

func (e *Editor) spliceElementAttr(cur item.Item, el *item.Element, idx int, newChild item.Item) item.Item {
	if e.mode == Inline {
		el.Attrs[idx] = newChild
		return cur
	}
	attrs := append([]item.Item(nil), el.Attrs...)
	attrs[idx] = newChild
	return item.NewElement(el.TagName, el.ShapePtr, attrs, el.Children)
}

func (e *Editor) spliceElementChild(cur item.Item, el *item.Element, idx int, newChild item.Item) item.Item {
	if e.mode == Inline {
		el.Children[idx] = newChild
		return cur
	}
	children := append([]item.Item(nil), el.Children...)
	children[idx] = newChild
	return item.NewElement(el.TagName, el.ShapePtr, el.Attrs, children)
}

func (e *Editor) spliceArray(cur item.Item, items []item.Item, elemType item.Tag, isList bool, idx int, newChild item.Item) item.Item {
	if e.mode == Inline {
		items[idx] = newChild
		return cur
	}
	out := append([]item.Item(nil), items...)
	out[idx] = newChild
	if isList {
		return item.NewList(out)
	}
	return item.NewArray(elemType, out)
}

func arrayItems(it item.Item) (items []item.Item, elemType item.Tag, isList bool, ok bool) {
	if a := it.AsArray(); a != nil {
		return a.Items, a.ElemType, false, true
	}
	if l := it.AsList(); l != nil {
		return l.Items, 0, true, true
	}
	return nil, 0, false, false
}

func fieldIndex(shape item.Shape, name string) int {
	s, ok := shape.(*shapepool.Shape)
	if !ok {
		return -1
	}
	return s.FieldIndex(name)
}

// --- Map operations (§4.U1) ---

// UpdateField replaces the value stored at an existing key, leaving the
// map's shape untouched. Returns an error if key is not declared.
func (e *Editor) UpdateField(path Path, key string, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: UpdateField target is not a map")
		}
		idx := fieldIndex(m.ShapePtr, key)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such field %q", key)
		}
		return e.spliceMap(cur, m, idx, value), nil
	})
}

// UpdateFields applies every (key, value) pair in updates to an existing
// map, failing atomically (no partial application) if any key is
// undeclared.
func (e *Editor) UpdateFields(path Path, updates map[string]item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: UpdateFields target is not a map")
		}
		idxs := make(map[string]int, len(updates))
		for key := range updates {
			idx := fieldIndex(m.ShapePtr, key)
			if idx < 0 {
				return item.Item{}, fmt.Errorf("editor: no such field %q", key)
			}
			idxs[key] = idx
		}
		data := m.Data
		if e.mode != Inline {
			data = append([]item.Item(nil), m.Data...)
		}
		for key, idx := range idxs {
			data[idx] = updates[key]
		}
		if e.mode == Inline {
			return cur, nil
		}
		return item.NewMap(m.ShapePtr, data), nil
	})
}

// InsertField adds a new key to a map, requesting a new deduplicated
// shape from the factory's shape pool. Returns an error if key is
// already declared.
func (e *Editor) InsertField(path Path, key string, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: InsertField target is not a map")
		}
		key = builder.NormalizeKey(key)
		if fieldIndex(m.ShapePtr, key) >= 0 {
			return item.Item{}, fmt.Errorf("editor: field %q already exists", key)
		}
		specs, _ := fieldSpecs(m.ShapePtr)
		specs = append(specs, shapepool.FieldSpec{
			Name: e.factory.Names.CreateName([]byte(key)),
			Type: fieldTypeOf(value),
		})
		shape, err := e.factory.Shapes.GetMapShape(specs)
		if err != nil {
			return item.Item{}, err
		}
		data := append(append([]item.Item(nil), m.Data...), value)
		return item.NewMap(shape, data), nil
	})
}

// DeleteField removes an existing key from a map, requesting a new
// deduplicated shape without it.
func (e *Editor) DeleteField(path Path, key string) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: DeleteField target is not a map")
		}
		idx := fieldIndex(m.ShapePtr, key)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such field %q", key)
		}
		specs, _ := fieldSpecs(m.ShapePtr)
		specs = append(specs[:idx], specs[idx+1:]...)
		shape, err := e.factory.Shapes.GetMapShape(specs)
		if err != nil {
			return item.Item{}, err
		}
		data := append(append([]item.Item(nil), m.Data[:idx:idx]...), m.Data[idx+1:]...)
		return item.NewMap(shape, data), nil
	})
}

// DeleteFields removes every key named in keys from a map in one shape
// change.
func (e *Editor) DeleteFields(path Path, keys []string) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: DeleteFields target is not a map")
		}
		drop := make(map[int]bool, len(keys))
		for _, key := range keys {
			idx := fieldIndex(m.ShapePtr, key)
			if idx < 0 {
				return item.Item{}, fmt.Errorf("editor: no such field %q", key)
			}
			drop[idx] = true
		}
		specs, _ := fieldSpecs(m.ShapePtr)
		var newSpecs []shapepool.FieldSpec
		var data []item.Item
		for i, spec := range specs {
			if drop[i] {
				continue
			}
			newSpecs = append(newSpecs, spec)
			data = append(data, m.Data[i])
		}
		shape, err := e.factory.Shapes.GetMapShape(newSpecs)
		if err != nil {
			return item.Item{}, err
		}
		return item.NewMap(shape, data), nil
	})
}

// RenameField renames an existing map key in place, keeping its value
// and position, through a new deduplicated shape.
func (e *Editor) RenameField(path Path, oldKey, newKey string) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		m := cur.AsMap()
		if m == nil {
			return item.Item{}, fmt.Errorf("editor: RenameField target is not a map")
		}
		idx := fieldIndex(m.ShapePtr, oldKey)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such field %q", oldKey)
		}
		newKey = builder.NormalizeKey(newKey)
		if fieldIndex(m.ShapePtr, newKey) >= 0 {
			return item.Item{}, fmt.Errorf("editor: field %q already exists", newKey)
		}
		specs, _ := fieldSpecs(m.ShapePtr)
		specs[idx] = shapepool.FieldSpec{Name: e.factory.Names.CreateName([]byte(newKey)), Type: specs[idx].Type}
		shape, err := e.factory.Shapes.GetMapShape(specs)
		if err != nil {
			return item.Item{}, err
		}
		return item.NewMap(shape, append([]item.Item(nil), m.Data...)), nil
	})
}

// --- Element operations (§4.U1) ---

// UpdateAttr replaces the value of an existing attribute.
func (e *Editor) UpdateAttr(path Path, name string, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: UpdateAttr target is not an element")
		}
		idx := fieldIndex(el.ShapePtr, name)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such attribute %q", name)
		}
		return e.spliceElementAttr(cur, el, idx, value), nil
	})
}

// InsertAttr adds a new attribute, requesting a new element shape.
func (e *Editor) InsertAttr(path Path, name string, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: InsertAttr target is not an element")
		}
		name = builder.NormalizeKey(name)
		if fieldIndex(el.ShapePtr, name) >= 0 {
			return item.Item{}, fmt.Errorf("editor: attribute %q already exists", name)
		}
		specs, _ := fieldSpecs(el.ShapePtr)
		specs = append(specs, shapepool.FieldSpec{
			Name: e.factory.Names.CreateName([]byte(name)),
			Type: fieldTypeOf(value),
		})
		shape, err := e.factory.Shapes.GetElementShape(el.TagName, specs)
		if err != nil {
			return item.Item{}, err
		}
		attrs := append(append([]item.Item(nil), el.Attrs...), value)
		return item.NewElement(el.TagName, shape, attrs, el.Children), nil
	})
}

// DeleteAttr removes an existing attribute, requesting a new element
// shape without it.
func (e *Editor) DeleteAttr(path Path, name string) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: DeleteAttr target is not an element")
		}
		idx := fieldIndex(el.ShapePtr, name)
		if idx < 0 {
			return item.Item{}, fmt.Errorf("editor: no such attribute %q", name)
		}
		specs, _ := fieldSpecs(el.ShapePtr)
		specs = append(specs[:idx], specs[idx+1:]...)
		shape, err := e.factory.Shapes.GetElementShape(el.TagName, specs)
		if err != nil {
			return item.Item{}, err
		}
		attrs := append(append([]item.Item(nil), el.Attrs[:idx:idx]...), el.Attrs[idx+1:]...)
		return item.NewElement(el.TagName, shape, attrs, el.Children), nil
	})
}

// RenameElement changes an element's tag name, requesting a new element
// shape (shapes key on tag name, §3.4) with the same attribute layout.
func (e *Editor) RenameElement(path Path, newTagName string) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: RenameElement target is not an element")
		}
		specs, _ := fieldSpecs(el.ShapePtr)
		shape, err := e.factory.Shapes.GetElementShape(newTagName, specs)
		if err != nil {
			return item.Item{}, err
		}
		return item.NewElement(newTagName, shape, el.Attrs, el.Children), nil
	})
}

// InsertChild inserts child at index, shifting later children right.
func (e *Editor) InsertChild(path Path, index int, child item.Item) error {
	return e.InsertChildren(path, index, []item.Item{child})
}

// InsertChildren inserts children at index, shifting later children
// right.
func (e *Editor) InsertChildren(path Path, index int, children []item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: InsertChildren target is not an element")
		}
		if index < 0 || index > len(el.Children) {
			return item.Item{}, fmt.Errorf("editor: child index %d out of range", index)
		}
		out := make([]item.Item, 0, len(el.Children)+len(children))
		out = append(out, el.Children[:index]...)
		out = append(out, children...)
		out = append(out, el.Children[index:]...)
		if e.mode == Inline {
			el.Children = out
			return cur, nil
		}
		return item.NewElement(el.TagName, el.ShapePtr, el.Attrs, out), nil
	})
}

// AppendChild appends child as an element's last child.
func (e *Editor) AppendChild(path Path, child item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: AppendChild target is not an element")
		}
		if e.mode == Inline {
			el.Children = append(el.Children, child)
			return cur, nil
		}
		children := append(append([]item.Item(nil), el.Children...), child)
		return item.NewElement(el.TagName, el.ShapePtr, el.Attrs, children), nil
	})
}

// ReplaceChild replaces the child at index.
func (e *Editor) ReplaceChild(path Path, index int, child item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: ReplaceChild target is not an element")
		}
		if index < 0 || index >= len(el.Children) {
			return item.Item{}, fmt.Errorf("editor: child index %d out of range", index)
		}
		return e.spliceElementChild(cur, el, index, child), nil
	})
}

// DeleteChild removes the child at index.
func (e *Editor) DeleteChild(path Path, index int) error {
	return e.DeleteChildren(path, []int{index})
}

// DeleteChildren removes every child whose index appears in indices.
func (e *Editor) DeleteChildren(path Path, indices []int) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		el := cur.AsElement()
		if el == nil {
			return item.Item{}, fmt.Errorf("editor: DeleteChildren target is not an element")
		}
		drop := make(map[int]bool, len(indices))
		for _, i := range indices {
			if i < 0 || i >= len(el.Children) {
				return item.Item{}, fmt.Errorf("editor: child index %d out of range", i)
			}
			drop[i] = true
		}
		var children []item.Item
		for i, c := range el.Children {
			if !drop[i] {
				children = append(children, c)
			}
		}
		if e.mode == Inline {
			el.Children = children
			return cur, nil
		}
		return item.NewElement(el.TagName, el.ShapePtr, el.Attrs, children), nil
	})
}

// --- Array/list operations (§4.U1) ---

// Set replaces the element at index.
func (e *Editor) Set(path Path, index int, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		items, elemType, isList, ok := arrayItems(cur)
		if !ok {
			return item.Item{}, fmt.Errorf("editor: Set target is not an array")
		}
		if index < 0 || index >= len(items) {
			return item.Item{}, fmt.Errorf("editor: index %d out of range", index)
		}
		return e.spliceArray(cur, items, elemType, isList, index, value), nil
	})
}

// Insert inserts value at index, shifting later elements right.
func (e *Editor) Insert(path Path, index int, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		items, elemType, isList, ok := arrayItems(cur)
		if !ok {
			return item.Item{}, fmt.Errorf("editor: Insert target is not an array")
		}
		if index < 0 || index > len(items) {
			return item.Item{}, fmt.Errorf("editor: index %d out of range", index)
		}
		out := make([]item.Item, 0, len(items)+1)
		out = append(out, items[:index]...)
		out = append(out, value)
		out = append(out, items[index:]...)
		if e.mode == Inline {
			setItems(cur, out)
			return cur, nil
		}
		if isList {
			return item.NewList(out), nil
		}
		return item.NewArray(elemType, out), nil
	})
}

// Append adds value as the last element.
func (e *Editor) Append(path Path, value item.Item) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		items, elemType, isList, ok := arrayItems(cur)
		if !ok {
			return item.Item{}, fmt.Errorf("editor: Append target is not an array")
		}
		out := append(append([]item.Item(nil), items...), value)
		if e.mode == Inline {
			setItems(cur, out)
			return cur, nil
		}
		if isList {
			return item.NewList(out), nil
		}
		return item.NewArray(elemType, out), nil
	})
}

// Delete removes the element at index.
func (e *Editor) Delete(path Path, index int) error {
	return e.apply(path, func(cur item.Item) (item.Item, error) {
		items, elemType, isList, ok := arrayItems(cur)
		if !ok {
			return item.Item{}, fmt.Errorf("editor: Delete target is not an array")
		}
		if index < 0 || index >= len(items) {
			return item.Item{}, fmt.Errorf("editor: index %d out of range", index)
		}
		out := append(append([]item.Item(nil), items[:index:index]...), items[index+1:]...)
		if e.mode == Inline {
			setItems(cur, out)
			return cur, nil
		}
		if isList {
			return item.NewList(out), nil
		}
		return item.NewArray(elemType, out), nil
	})
}

// setItems mutates an array/list item's backing Items slice in place,
// for Inline-mode operations that change its length.
func setItems(it item.Item, items []item.Item) {
	if a := it.AsArray(); a != nil {
		a.Items = items
		return
	}
	if l := it.AsList(); l != nil {
		l.Items = items
	}
}

// fieldSpecs reconstructs the FieldSpec list a shape was built from, so
// InsertField/DeleteField/RenameField/InsertAttr/DeleteAttr can request
// a new shape that differs from the current one by exactly one field.
func fieldSpecs(shape item.Shape) ([]shapepool.FieldSpec, bool) {
	s, ok := shape.(*shapepool.Shape)
	if !ok || s == nil {
		return nil, false
	}
	specs := make([]shapepool.FieldSpec, len(s.Entries))
	for i, entry := range s.Entries {
		specs[i] = shapepool.FieldSpec{Name: entry.Name, Type: entry.Type}
	}
	return specs, true
}

func fieldTypeOf(v item.Item) shapepool.FieldType {
	switch v.Tag() {
	case item.TagNull:
		return shapepool.FieldNull
	case item.TagBool:
		return shapepool.FieldBool
	case item.TagInt56, item.TagInt64:
		return shapepool.FieldInt
	case item.TagFloat64:
		return shapepool.FieldFloat
	case item.TagDecimal:
		return shapepool.FieldDecimal
	case item.TagString:
		return shapepool.FieldString
	case item.TagSymbol:
		return shapepool.FieldSymbol
	case item.TagDateTime:
		return shapepool.FieldDateTime
	case item.TagBinary:
		return shapepool.FieldBinary
	default:
		return shapepool.FieldContainer
	}
}
