package common

// Path locates an object inside a document: the key it sits under, the
// object holding it, and the path of that object in turn.
type Path struct {
	Key    Key
	Parent *Object
	Others *Path
}

// Depth returns the number of ancestors; the root path is nil with depth 0.
func (p *Path) Depth() int {
	depth := 0
	for ; p != nil; p = p.Others {
		depth++
	}
	return depth
}

// ParentKind returns the kind of the enclosing object, or "" at the root.
func (p *Path) ParentKind() string {
	if p == nil || p.Parent == nil {
		return ""
	}
	return p.Parent.Kind
}

// WalkObjects visits every object depth-first in document order. When fn
// returns false the children of that object are skipped.
func WalkObjects(doc Document, fn func(obj *Object, path *Path) bool) {
	walkObjects(doc, nil, fn)
}

func walkObjects(doc Document, path *Path, fn func(obj *Object, path *Path) bool) {
	obj, ok := doc.(*Object)
	if !ok || obj == nil {
		return
	}
	if !fn(obj, path) {
		return
	}
	for _, entry := range obj.Children {
		walkObjects(entry.Value, &Path{Key: entry.Key, Parent: obj, Others: path}, fn)
	}
}
