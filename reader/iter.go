package reader

import "github.com/lambda-doc/lambda/item"

// TraversalMode selects one of the element iterator constructors of
// §4.L8. Each mode is a distinct constructor rather than a single
// "next" dispatching on a stored mode, matching the Go-native rendering
// of the source's tagged-union iterator chosen in SPEC_FULL.md's §9.1
// notes: a range-over-func iterator value per mode.
type TraversalMode int

const (
	ChildrenOnly TraversalMode = iota
	DepthFirst
	BreadthFirst
	TextOnly
)

// Walk returns an iterator over el's descendants in the given mode. Every
// mode's iterator carries its own stack/queue and never mutates the tree.
func Walk(el ElementReader, mode TraversalMode) func(yield func(item.Item) bool) {
	switch mode {
	case ChildrenOnly:
		return walkChildrenOnly(el)
	case DepthFirst:
		return walkDepthFirst(el)
	case BreadthFirst:
		return walkBreadthFirst(el)
	case TextOnly:
		return walkTextOnly(el)
	default:
		return func(yield func(item.Item) bool) {}
	}
}

func walkChildrenOnly(el ElementReader) func(yield func(item.Item) bool) {
	return func(yield func(item.Item) bool) {
		for _, c := range childrenOrEmptyHelper(el.e) {
			if !yield(c) {
				return
			}
		}
	}
}

func walkDepthFirst(el ElementReader) func(yield func(item.Item) bool) {
	return func(yield func(item.Item) bool) {
		stack := append([]item.Item(nil), childrenOrEmptyHelper(el.e)...)
		reverseInPlace(stack)
		for len(stack) > 0 {
			n := len(stack) - 1
			cur := stack[n]
			stack = stack[:n]
			if !yield(cur) {
				return
			}
			if cur.Tag() == item.TagElement {
				children := cur.AsElement().Children
				rev := append([]item.Item(nil), children...)
				reverseInPlace(rev)
				stack = append(stack, rev...)
			}
		}
	}
}

func walkBreadthFirst(el ElementReader) func(yield func(item.Item) bool) {
	return func(yield func(item.Item) bool) {
		queue := append([]item.Item(nil), childrenOrEmptyHelper(el.e)...)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if !yield(cur) {
				return
			}
			if cur.Tag() == item.TagElement {
				queue = append(queue, cur.AsElement().Children...)
			}
		}
	}
}

func walkTextOnly(el ElementReader) func(yield func(item.Item) bool) {
	return func(yield func(item.Item) bool) {
		for v := range walkDepthFirst(el) {
			if v.Tag() == item.TagString {
				if !yield(v) {
					return
				}
			}
		}
	}
}

func reverseInPlace(s []item.Item) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// childrenOrEmpty guards against a nil *item.Element (zero-value
// ElementReader).
func childrenOrEmptyHelper(e *item.Element) []item.Item {
	if e == nil {
		return nil
	}
	return e.Children
}
