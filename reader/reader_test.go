package reader_test

import (
	"testing"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/item"
	"github.com/lambda-doc/lambda/reader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapReaderKeysMatchEntries(t *testing.T) {
	f := builder.NewFactory()
	m := f.NewMapBuilder().Put("a", f.CreateInt(1)).Put("b", f.CreateInt(2)).Final()
	mr := reader.Of(m).AsMap()

	var fromKeys []string
	for k := range mr.Keys() {
		fromKeys = append(fromKeys, k)
	}
	var fromEntries []string
	for k, v := range mr.Entries() {
		fromEntries = append(fromEntries, k)
		assert.Equal(t, mr.Get(k), v)
	}
	assert.Equal(t, fromKeys, fromEntries)
	assert.True(t, mr.Has("a"))
	assert.False(t, mr.Has("z"))
}

func TestWrongTagProjectionsAreDefinedEmpty(t *testing.T) {
	f := builder.NewFactory()
	b := f.CreateBool(true)
	r := reader.Of(b)
	assert.Equal(t, "", r.AsString())
	assert.Equal(t, int64(0), r.AsInt64())
}

func buildTree(f *builder.Factory) item.Item {
	// <div>text1<span>inner</span>text2</div>
	inner := f.NewElementBuilder("span").Child(f.CreateString([]byte("inner"))).Final()
	return f.NewElementBuilder("div").
		Child(f.CreateString([]byte("text1"))).
		Child(inner).
		Child(f.CreateString([]byte("text2"))).
		Final()
}

func TestChildrenOnlyIteration(t *testing.T) {
	f := builder.NewFactory()
	tree := buildTree(f)
	er := reader.Of(tree).AsElement()
	require.Equal(t, 3, er.ChildCount())

	var kinds []item.Tag
	for _, c := range er.Children() {
		kinds = append(kinds, c.Tag())
	}
	assert.Equal(t, []item.Tag{item.TagString, item.TagElement, item.TagString}, kinds)
}

func TestDepthFirstVisitsNestedChildren(t *testing.T) {
	f := builder.NewFactory()
	tree := buildTree(f)
	er := reader.Of(tree).AsElement()

	var texts []string
	for v := range reader.Walk(er, reader.DepthFirst) {
		if v.Tag() == item.TagString {
			texts = append(texts, string(v.AsString()))
		}
	}
	assert.Equal(t, []string{"text1", "inner", "text2"}, texts)
}

func TestTextOnlyIterationSkipsElements(t *testing.T) {
	f := builder.NewFactory()
	tree := buildTree(f)
	er := reader.Of(tree).AsElement()

	var texts []string
	for v := range reader.Walk(er, reader.TextOnly) {
		texts = append(texts, string(v.AsString()))
	}
	assert.Equal(t, []string{"text1", "inner", "text2"}, texts)
}

func TestGetStringAttrConvenience(t *testing.T) {
	f := builder.NewFactory()
	el := f.NewElementBuilder("a").Attr("href", "https://example.com").Final()
	er := reader.Of(el).AsElement()
	assert.Equal(t, "https://example.com", er.GetStringAttr("href"))
	assert.Equal(t, "", er.GetStringAttr("missing"))
}
