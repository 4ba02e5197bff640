package common

// Document is the serializer-agnostic value built from a syntax tree. It is
// either a Scalar or an *Object.
type Document interface {
	isDocument()
}

// Object is the document form of a syntax node. Its four fields are always
// written in this order.
type Object struct {
	Kind     string
	Flags    int
	Lineno   int
	Children []Entry
}

type Entry struct {
	Key   Key
	Value Document
}

func (*Object) isDocument() {}

func (o *Object) Get(key Key) (Document, bool) {
	for _, entry := range o.Children {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// Child returns the named child document, or nil when there is none.
func (o *Object) Child(name string) Document {
	d, _ := o.Get(NameKey(name))
	return d
}

// IsList reports whether the children are keyed exactly 0..n-1 in order, in
// which case encoders write them as a list rather than a map.
func (o *Object) IsList() bool {
	return isList(o.Children)
}

func isList(entries []Entry) bool {
	for i, entry := range entries {
		if entry.Key.named || entry.Key.index != i {
			return false
		}
	}
	return true
}
