// Package yaml implements the YAML format parser of §4.M2. Rather than
// re-deriving a scanner/parser/resolver from scratch, it delegates
// grammar and scalar recognition to goccy/go-yaml's AST layer and walks
// the result into an item tree through builder — the same anchor/alias
// resolution and tag-unwrapping idiom the rest of the retrieved pack
// uses (MacroPower-x/magicschema's generator.go), adapted here to
// produce item.Item instead of a JSON Schema.
package yaml

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/lambda-doc/lambda/builder"
	"github.com/lambda-doc/lambda/input"
	"github.com/lambda-doc/lambda/item"
)

func init() { input.Register("yaml", Parse) }

// MaxDepth bounds the item-tree conversion walk; goccy's own parser has
// already built the AST by the time this runs, so this only guards
// against a pathologically deep tree blowing the Go call stack during
// conversion (§4.M2 depth-limit family).
const MaxDepth = 512

// Parse drives ctx.Build to construct an item tree from a YAML document,
// using only the first document of a multi-document stream.
func Parse(ctx *input.Context, src []byte) item.Item {
	if len(src) == 0 {
		return item.Null
	}
	file, err := parser.ParseBytes(src, parser.ParseComments)
	if err != nil {
		ctx.AddError("yaml: %s", err)
		return item.Null
	}
	ctx.Tracker.Advance(len(src))

	if len(file.Docs) == 0 {
		return item.Null
	}
	if len(file.Docs) > 1 {
		ctx.AddWarning("yaml stream has %d documents; only the first is used", len(file.Docs))
	}
	doc := file.Docs[0]
	if doc.Body == nil {
		return item.Null
	}

	anchors := make(map[string]ast.Node)
	collectAnchors(doc.Body, anchors)

	c := &converter{ctx: ctx, anchors: anchors}
	return c.convert(doc.Body)
}

// collectAnchors walks the tree once up front recording every &name
// anchor's value node, so aliases anywhere in the document (including
// ones appearing before their anchor, or in a sibling branch) resolve,
// mirroring MacroPower-x/magicschema's buildAnchorMap/anchorVisitor.
func collectAnchors(node ast.Node, anchors map[string]ast.Node) {
	ast.Walk(anchorVisitorFunc(func(n ast.Node) {
		if a, ok := n.(*ast.AnchorNode); ok {
			anchors[a.Name.String()] = a.Value
		}
	}), node)
}

// anchorVisitorFunc adapts a plain func to ast.Visitor.
type anchorVisitorFunc func(ast.Node)

func (f anchorVisitorFunc) Visit(node ast.Node) ast.Visitor {
	f(node)
	return f
}

type converter struct {
	ctx     *input.Context
	anchors map[string]ast.Node
	depth   int
}

func (c *converter) enter() bool {
	c.depth++
	ok := c.ctx.EnterDepth()
	if ok && c.depth > MaxDepth {
		c.ctx.AddError("maximum YAML nesting depth %d exceeded", MaxDepth)
		return false
	}
	return ok
}

func (c *converter) exit() {
	c.depth--
	c.ctx.ExitDepth()
}

// resolveAlias follows a single alias hop to its anchor's value node;
// unresolvable aliases convert to null rather than erroring, since a
// dangling alias is a content problem, not a syntax one.
func (c *converter) resolveAlias(node ast.Node) ast.Node {
	alias, ok := node.(*ast.AliasNode)
	if !ok {
		return node
	}
	name := alias.Value.String()
	if resolved, found := c.anchors[name]; found {
		return resolved
	}
	c.ctx.AddWarning("undefined YAML alias *%s", name)
	return nil
}

// unwrap peels AnchorNode/TagNode wrappers down to the underlying value
// node. Explicit tag overrides beyond the implicit ones goccy already
// resolved (§9 open question: only the unwrap, not a retag, is applied;
// a bespoke `!mytag` is preserved as a plain value of its natural kind).
func unwrap(node ast.Node) ast.Node {
	for {
		switch n := node.(type) {
		case *ast.TagNode:
			node = n.Value
		case *ast.AnchorNode:
			node = n.Value
		default:
			return node
		}
	}
}

func (c *converter) convert(node ast.Node) item.Item {
	if c.ctx.ShouldStopParsing() {
		return item.Null
	}
	node = c.resolveAlias(node)
	node = unwrap(node)
	if node == nil {
		return item.Null
	}

	switch n := node.(type) {
	case *ast.MappingNode:
		return c.convertMapping(n.Values)
	case *ast.MappingValueNode:
		return c.convertMapping([]*ast.MappingValueNode{n})
	case *ast.SequenceNode:
		return c.convertSequence(n)
	default:
		return c.convertScalar(node)
	}
}

func (c *converter) convertMapping(values []*ast.MappingValueNode) item.Item {
	if !c.enter() {
		return item.Null
	}
	defer c.exit()

	mb := c.ctx.Build.NewMapBuilder()

	// Merge keys (<<) are applied first so that any explicit key in
	// values overwrites the merged-in value, regardless of source
	// order, matching the YAML merge-key precedence rule.
	for _, mvn := range values {
		if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
			c.applyMerge(mb, mvn.Value)
		}
	}
	for _, mvn := range values {
		if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
			continue
		}
		key := mvn.Key.String()
		mb.Put(key, c.convert(mvn.Value))
	}
	return mb.Final()
}

func (c *converter) applyMerge(mb *builder.MapBuilder, node ast.Node) {
	node = c.resolveAlias(node)
	node = unwrap(node)
	switch n := node.(type) {
	case *ast.MappingNode:
		for _, mvn := range n.Values {
			if _, ok := mvn.Key.(*ast.MergeKeyNode); ok {
				c.applyMerge(mb, mvn.Value)
				continue
			}
			mb.Put(mvn.Key.String(), c.convert(mvn.Value))
		}
	case *ast.SequenceNode:
		for _, v := range n.Values {
			c.applyMerge(mb, v)
		}
	}
}

func (c *converter) convertSequence(n *ast.SequenceNode) item.Item {
	if !c.enter() {
		return item.Null
	}
	defer c.exit()

	ab := c.ctx.Build.NewArrayBuilder(item.AnyType)
	for _, v := range n.Values {
		ab.Append(c.convert(v))
	}
	return ab.Final()
}

// convertScalar classifies a scalar node using goccy's own node kind
// (already resolved against the YAML core schema) and parses its
// literal text (§4.M2's int/float promotion policy mirrors parser/json).
func (c *converter) convertScalar(node ast.Node) item.Item {
	switch n := node.(type) {
	case *ast.NullNode:
		return item.Null
	case *ast.BoolNode:
		return c.ctx.Build.CreateBool(strings.EqualFold(n.String(), "true"))
	case *ast.IntegerNode:
		text := strings.TrimSpace(n.String())
		if v, err := strconv.ParseInt(text, 0, 64); err == nil {
			return c.ctx.Build.CreateInt(v)
		}
		if v, err := strconv.ParseUint(text, 0, 64); err == nil {
			return c.ctx.Build.CreateInt(int64(v))
		}
		c.ctx.AddWarning("invalid YAML integer literal %q", text)
		return c.ctx.Build.CreateString([]byte(text))
	case *ast.FloatNode:
		text := strings.TrimSpace(n.String())
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			c.ctx.AddWarning("invalid YAML float literal %q", text)
			return c.ctx.Build.CreateString([]byte(text))
		}
		return c.ctx.Build.CreateFloat(v)
	case *ast.InfinityNode:
		if strings.HasPrefix(strings.TrimSpace(n.String()), "-") {
			return c.ctx.Build.CreateFloat(math.Inf(-1))
		}
		return c.ctx.Build.CreateFloat(math.Inf(1))
	case *ast.NanNode:
		return c.ctx.Build.CreateFloat(math.NaN())
	case *ast.StringNode, *ast.LiteralNode:
		return c.ctx.Build.CreateString([]byte(node.String()))
	default:
		return c.ctx.Build.CreateString([]byte(node.String()))
	}
}
