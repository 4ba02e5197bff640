package common

// Kind is the numeric category code of a syntax node. Its symbolic name is
// resolved through a kinds.Table.
type Kind int

// Value is a child of a syntax node. It is either a Scalar or a *Node; a nil
// Value stands for an absent child.
type Value interface {
	isValue()
}

// Node is a syntax tree node in the shape produced by php-ast.
type Node struct {
	Kind     Kind    // Category code
	Flags    int     // Kind-specific bitmask
	Line     int     // 1-based source line, 0 if unknown
	Children []Child // Ordered, keyed children

	// Append state: the next free index over Children[:scanned].
	next    int
	scanned int
}

type Child struct {
	Key   Key
	Value Value
}

func (*Node) isValue() {}

func NewNode(kind Kind, flags int, line int) *Node {
	return &Node{
		Kind:     kind,
		Flags:    flags,
		Line:     line,
		Children: []Child{},
	}
}

// Append adds a positional child. Like a PHP array append, the index is one
// more than the largest index already present.
func (n *Node) Append(v Value) *Node {
	if n.scanned > len(n.Children) {
		n.next, n.scanned = 0, 0
	}
	for _, child := range n.Children[n.scanned:] {
		if !child.Key.named && child.Key.index >= n.next {
			n.next = child.Key.index + 1
		}
	}
	n.Children = append(n.Children, Child{Key: IndexKey(n.next), Value: v})
	n.next++
	n.scanned = len(n.Children)
	return n
}

// Set adds a named child, replacing the value in place if the name exists.
func (n *Node) Set(name string, v Value) *Node {
	key := NameKey(name)
	for i := range n.Children {
		if n.Children[i].Key == key {
			n.Children[i].Value = v
			return n
		}
	}
	n.Children = append(n.Children, Child{Key: key, Value: v})
	return n
}

func (n *Node) Get(key Key) (Value, bool) {
	for _, child := range n.Children {
		if child.Key == key {
			return child.Value, true
		}
	}
	return nil, false
}

// Child returns the named child, or nil when there is none.
func (n *Node) Child(name string) Value {
	v, _ := n.Get(NameKey(name))
	return v
}

func (n *Node) Len() int {
	return len(n.Children)
}
