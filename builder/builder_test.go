package builder_test

import (
	"testing"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBuilderFinalProducesSharedShapeForIdenticalFields(t *testing.T) {
	f := builder.NewFactory()
	m1 := f.NewMapBuilder().Put("name", f.CreateString([]byte("Alice"))).Put("age", f.CreateInt(30)).Final()
	m2 := f.NewMapBuilder().Put("name", f.CreateString([]byte("Bob"))).Put("age", f.CreateInt(25)).Final()

	require.Equal(t, item.TagMap, m1.Tag())
	assert.Same(t, m1.AsMap().ShapePtr, m2.AsMap().ShapePtr)
}

func TestEmptyKeyNormalizedToSentinel(t *testing.T) {
	f := builder.NewFactory()
	m := f.NewMapBuilder().Put("", f.CreateInt(1)).Final()
	shape := m.AsMap().ShapePtr
	assert.Equal(t, builder.NormalizeKey(""), "''")
	_ = shape
}

func TestArrayBuilderAppendFinal(t *testing.T) {
	f := builder.NewFactory()
	arr := f.NewArrayBuilder(item.TagInt56).Append(f.CreateInt(1)).Append(f.CreateInt(2)).Final()
	require.Equal(t, item.TagArray, arr.Tag())
	assert.Len(t, arr.AsArray().Items, 2)
}

func TestElementBuilderAttrsAndChildren(t *testing.T) {
	f := builder.NewFactory()
	el := f.NewElementBuilder("p").
		Attr("class", "intro").
		Child(f.CreateString([]byte("hello"))).
		Final()
	require.Equal(t, item.TagElement, el.Tag())
	e := el.AsElement()
	assert.Equal(t, "p", e.TagName)
	assert.Len(t, e.Children, 1)
	assert.Len(t, e.Attrs, 1)
}

func TestFinalTwiceOnSameBuilderPanics(t *testing.T) {
	f := builder.NewFactory()
	b := f.NewArrayBuilder(item.TagInt56)
	b.Final()
	assert.Panics(t, func() { b.Final() })
}

func TestCreateIntPromotion(t *testing.T) {
	f := builder.NewFactory()
	small := f.CreateInt(42)
	big := f.CreateInt(1 << 60)
	assert.Equal(t, item.TagInt56, small.Tag())
	assert.Equal(t, item.TagInt64, big.Tag())
}
