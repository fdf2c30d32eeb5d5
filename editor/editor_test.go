package editor_test

import (
	"fmt"
	"testing"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/editor"
	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/reader"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPerson(f *builder.Factory, name string, age int64) item.Item {
	return f.NewMapBuilder().
		Put("name", f.CreateString([]byte(name))).
		Put("age", f.CreateInt(age)).
		Final()
}

func TestInlineUpdateFieldMutatesSameRoot(t *testing.T) {
	f := builder.NewFactory()
	root := f.NewMapBuilder().Put("person", buildPerson(f, "Ada", 30)).Final()

	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.UpdateField(editor.Path{editor.Field("person")}, "age", f.CreateInt(31)))

	person := reader.Of(ed.Current()).AsMap().Get("person")
	assert.EqualValues(t, 31, reader.Of(reader.Of(person).AsMap().Get("age")).AsInt64())
}

func TestUpdateFieldRejectsUnknownKey(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.Inline)
	err := ed.UpdateField(nil, "nonexistent", f.CreateInt(1))
	assert.Error(t, err)
}

func TestInsertFieldChangesShape(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.InsertField(nil, "email", f.CreateString([]byte("ada@example.com"))))

	m := reader.Of(ed.Current()).AsMap()
	assert.True(t, m.Has("email"))
	assert.Equal(t, "ada@example.com", reader.Of(m.Get("email")).AsString())
	assert.True(t, m.Has("name"))
}

func TestInsertFieldRejectsDuplicateKey(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.Inline)
	assert.Error(t, ed.InsertField(nil, "name", f.CreateString([]byte("dup"))))
}

func TestDeleteFieldRemovesKey(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.DeleteField(nil, "age"))

	m := reader.Of(ed.Current()).AsMap()
	assert.False(t, m.Has("age"))
	assert.True(t, m.Has("name"))
}

func TestRenameFieldKeepsValue(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.RenameField(nil, "name", "full_name"))

	m := reader.Of(ed.Current()).AsMap()
	assert.False(t, m.Has("name"))
	assert.Equal(t, "Ada", reader.Of(m.Get("full_name")).AsString())
}

func TestElementAttrAndChildOperations(t *testing.T) {
	f := builder.NewFactory()
	root := f.NewElementBuilder("p").
		Attr("class", "intro").
		Child(f.CreateString([]byte("hello"))).
		Child(f.CreateString([]byte("world"))).
		Final()

	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.UpdateAttr(nil, "class", f.CreateString([]byte("lede"))))
	require.NoError(t, ed.InsertAttr(nil, "id", f.CreateString([]byte("p1"))))
	require.NoError(t, ed.AppendChild(nil, f.CreateString([]byte("!"))))
	require.NoError(t, ed.ReplaceChild(nil, 1, f.CreateString([]byte("there"))))

	el := reader.Of(ed.Current()).AsElement()
	assert.Equal(t, "lede", el.GetStringAttr("class"))
	assert.Equal(t, "p1", el.GetStringAttr("id"))
	assert.Equal(t, 3, el.ChildCount())
	assert.Equal(t, "hello", reader.Of(el.ChildAt(0)).AsString())
	assert.Equal(t, "there", reader.Of(el.ChildAt(1)).AsString())
	assert.Equal(t, "!", reader.Of(el.ChildAt(2)).AsString())

	require.NoError(t, ed.DeleteAttr(nil, "id"))
	require.NoError(t, ed.DeleteChild(nil, 0))
	el = reader.Of(ed.Current()).AsElement()
	assert.False(t, el.HasAttr("id"))
	assert.Equal(t, 2, el.ChildCount())
}

func TestRenameElementChangesTag(t *testing.T) {
	f := builder.NewFactory()
	root := f.NewElementBuilder("div").Attr("id", "x").Final()
	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.RenameElement(nil, "section"))

	el := reader.Of(ed.Current()).AsElement()
	assert.Equal(t, "section", el.TagName())
	assert.Equal(t, "x", el.GetStringAttr("id"))
}

func TestArrayInsertSetAppendDelete(t *testing.T) {
	f := builder.NewFactory()
	root := f.NewArrayBuilder(item.TagInt56).
		Append(f.CreateInt(1)).
		Append(f.CreateInt(2)).
		Append(f.CreateInt(3)).
		Final()

	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.Set(nil, 0, f.CreateInt(10)))
	require.NoError(t, ed.Insert(nil, 1, f.CreateInt(99)))
	require.NoError(t, ed.Append(nil, f.CreateInt(4)))
	require.NoError(t, ed.Delete(nil, 2))

	arr := reader.Of(ed.Current()).AsArray()
	var got []int64
	for i := 0; i < arr.Length(); i++ {
		got = append(got, reader.Of(arr.Get(i)).AsInt64())
	}
	assert.Equal(t, []int64{10, 99, 3, 4}, got)
}

func TestNestedPathReachesDeepContainer(t *testing.T) {
	f := builder.NewFactory()
	inner := f.NewArrayBuilder(item.AnyType).Append(f.CreateString([]byte("a"))).Final()
	root := f.NewMapBuilder().Put("items", inner).Final()

	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.Set(editor.Path{editor.Field("items")}, 0, f.CreateString([]byte("b"))))

	items := reader.Of(reader.Of(ed.Current()).AsMap().Get("items")).AsArray()
	assert.Equal(t, "b", reader.Of(items.Get(0)).AsString())
}

func TestCopyOnWriteLeavesPriorVersionUntouched(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.CopyOnWrite)

	require.NoError(t, ed.UpdateField(nil, "age", f.CreateInt(31)))
	v1 := ed.Commit("birthday")

	original := reader.Of(root).AsMap()
	assert.EqualValues(t, 30, reader.Of(original.Get("age")).AsInt64())
	updated := reader.Of(v1.Root()).AsMap()
	assert.EqualValues(t, 31, reader.Of(updated.Get("age")).AsInt64())
}

func TestUndoRedoWalksVersionChain(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.CopyOnWrite)

	require.NoError(t, ed.UpdateField(nil, "age", f.CreateInt(31)))
	ed.Commit("v1")
	require.NoError(t, ed.UpdateField(nil, "age", f.CreateInt(32)))
	ed.Commit("v2")

	assert.EqualValues(t, 32, reader.Of(reader.Of(ed.Current()).AsMap().Get("age")).AsInt64())

	require.True(t, ed.Undo())
	assert.EqualValues(t, 31, reader.Of(reader.Of(ed.Current()).AsMap().Get("age")).AsInt64())

	require.True(t, ed.Undo())
	assert.EqualValues(t, 30, reader.Of(reader.Of(ed.Current()).AsMap().Get("age")).AsInt64())
	assert.False(t, ed.Undo())

	require.True(t, ed.Redo())
	assert.EqualValues(t, 31, reader.Of(reader.Of(ed.Current()).AsMap().Get("age")).AsInt64())

	assert.Equal(t, []string{"initial", "v1", "v2"}, ed.ListVersions())
}

func TestCommitAfterUndoDiscardsRedoHistory(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.CopyOnWrite)

	require.NoError(t, ed.UpdateField(nil, "age", f.CreateInt(31)))
	ed.Commit("v1")
	require.True(t, ed.Undo())

	require.NoError(t, ed.UpdateField(nil, "age", f.CreateInt(99)))
	ed.Commit("branch")

	assert.False(t, ed.Redo())
	assert.Equal(t, []string{"initial", "branch"}, ed.ListVersions())
}

func TestSwitchingToInlineClearsChain(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.CopyOnWrite)
	require.NoError(t, ed.UpdateField(nil, "age", f.CreateInt(31)))
	ed.Commit("v1")

	ed.SetMode(editor.Inline)
	assert.Nil(t, ed.CurrentVersion())
	assert.Empty(t, ed.ListVersions())
	assert.False(t, ed.Undo())
}

// renderMap is a tiny deterministic text rendering used only to diff two
// snapshots of the same shape in a test; it is not the module's emitter.
func renderMap(it item.Item) string {
	m := reader.Of(it).AsMap()
	var out string
	for key, v := range m.Entries() {
		out += fmt.Sprintf("%s=%v\n", key, reader.Of(v).CString())
	}
	return out
}

func TestVersionDiffShowsOnlyTheChangedField(t *testing.T) {
	f := builder.NewFactory()
	root := buildPerson(f, "Ada", 30)
	ed := editor.New(f, root, editor.CopyOnWrite)

	before := renderMap(ed.Current())
	require.NoError(t, ed.UpdateField(nil, "name", f.CreateString([]byte("Ada Lovelace"))))
	ed.Commit("rename")
	after := renderMap(ed.Current())

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "initial",
		ToFile:   "rename",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	require.NoError(t, err)
	assert.Contains(t, text, "-name=Ada")
	assert.Contains(t, text, "+name=Ada Lovelace")
}

func TestEmptyPathTargetsRootItself(t *testing.T) {
	f := builder.NewFactory()
	root := f.NewArrayBuilder(item.AnyType).Append(f.CreateInt(1)).Final()
	ed := editor.New(f, root, editor.Inline)
	require.NoError(t, ed.Append(nil, f.CreateInt(2)))
	assert.Equal(t, 2, reader.Of(ed.Current()).AsArray().Length())
}
