package syntax

import (
	"iter"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/hornbeam/pkg/safeconv"
)

// Kind is the grammar-specific category of a named node, e.g. "function_item".
// Equality is the only meaningful operation.
type Kind string

// Node is a named node of a parsed tree. It is a value type and is only
// valid while the owning Tree is open.
type Node struct {
	ts  sitter.Node
	src []byte
}

// Child is one element of a node's child sequence: either a nested named
// node or a literal text span lying between or around named children.
type Child struct {
	node   Node
	text   string
	isNode bool
}

// NodeChild wraps a node as a Child.
func NodeChild(n Node) Child {
	return Child{node: n, isNode: true}
}

// TextChild wraps a literal span as a Child.
func TextChild(text string) Child {
	return Child{text: text}
}

// IsNode reports whether the child is a nested node.
func (c Child) IsNode() bool {
	return c.isNode
}

// Node returns the nested node. Only meaningful when IsNode is true.
func (c Child) Node() Node {
	return c.node
}

// Text returns the child's source text, whether node or literal span.
func (c Child) Text() string {
	if c.isNode {
		return c.node.Text()
	}

	return c.text
}

// Kind returns the grammar kind of the node.
func (n Node) Kind() Kind {
	return Kind(n.ts.Type())
}

// StartByte returns the offset of the first byte of the node.
func (n Node) StartByte() int {
	return safeconv.MustUintToInt(n.ts.StartByte())
}

// EndByte returns the offset one past the last byte of the node.
func (n Node) EndByte() int {
	return safeconv.MustUintToInt(n.ts.EndByte())
}

// Text returns a copy of the exact source slice covered by the node.
func (n Node) Text() string {
	start, end := n.span()

	return string(n.src[start:end])
}

// HasError reports whether the node or any descendant is an ERROR or MISSING node.
func (n Node) HasError() bool {
	return n.ts.HasError()
}

// IsNull reports whether the node is the zero value.
func (n Node) IsNull() bool {
	return n.src == nil || n.ts.IsNull()
}

// Nodes returns the immediate named children, in order.
func (n Node) Nodes() []Node {
	count := n.ts.NamedChildCount()
	nodes := make([]Node, 0, count)

	for idx := range count {
		nodes = append(nodes, Node{ts: n.ts.NamedChild(idx), src: n.src})
	}

	return nodes
}

// Children returns the named children interleaved with the literal text
// around them. The sequence partitions the node's byte range: concatenating
// the text of every child yields Text() exactly. Empty gaps are omitted.
func (n Node) Children() []Child {
	start, end := n.span()
	named := n.Nodes()
	children := make([]Child, 0, 2*len(named)+1)
	pos := start

	for _, child := range named {
		childStart, childEnd := child.span()
		if childStart < pos {
			childStart = pos
		}

		if childStart > pos {
			children = append(children, TextChild(string(n.src[pos:childStart])))
		}

		children = append(children, NodeChild(child))

		if childEnd > pos {
			pos = childEnd
		}
	}

	if end > pos {
		children = append(children, TextChild(string(n.src[pos:end])))
	}

	return children
}

// Walk yields the node and every named descendant in pre-order.
func (n Node) Walk() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		n.walk(yield)
	}
}

func (n Node) walk(yield func(Node) bool) bool {
	if !yield(n) {
		return false
	}

	for _, child := range n.Nodes() {
		if !child.walk(yield) {
			return false
		}
	}

	return true
}

func (n Node) span() (start, end int) {
	start, end = n.StartByte(), n.EndByte()
	if end > len(n.src) {
		end = len(n.src)
	}

	if start > end {
		start = end
	}

	return start, end
}

func (n Node) String() string {
	return n.ts.String()
}
