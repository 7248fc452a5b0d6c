package trie

// growIncrement is how many child slots a node gains when it runs out of room.
// Words are short, so a small fixed step keeps nodes tight.
const growIncrement = 2

// Node is one character of a stored word. A node exclusively owns its children.
type Node struct {
	code      rune
	frequency int
	terminal  bool
	children  []*Node
}

// Code returns the character code of the node (0 for the root).
func (n *Node) Code() rune { return n.code }

// Frequency returns the usage weight. Only meaningful on terminal nodes.
func (n *Node) Frequency() int { return n.frequency }

// Terminal reports whether the path to this node spells a stored word.
func (n *Node) Terminal() bool { return n.terminal }

// Children returns the owned child nodes in insertion order.
// Callers must not modify the returned slice.
func (n *Node) Children() []*Node { return n.children }

// HasChildren reports whether the node has at least one child.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// child returns the child carrying code, or nil.
func (n *Node) child(code rune) *Node {
	for _, c := range n.children {
		if c.code == code {
			return c
		}
	}
	return nil
}

// add appends a child, growing the backing array by growIncrement.
func (n *Node) add(c *Node) {
	if len(n.children) == cap(n.children) {
		grown := make([]*Node, len(n.children), len(n.children)+growIncrement)
		copy(grown, n.children)
		n.children = grown
	}
	n.children = append(n.children, c)
}
