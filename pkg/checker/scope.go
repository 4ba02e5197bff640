package checker

import (
	"github.com/spicery/astdoc/pkg/common"
)

// scope holds the tainted variables of one function body, or of the file.
type scope struct {
	level   int             // Nesting level (0 = file).
	node    *common.Object  // The declaration that introduced this scope.
	parent  *scope          // Enclosing scope, nil for the file.
	tainted map[string]bool // Variables currently holding user input.
	globals map[string]bool // Names bound to the file scope with "global".
}

func newFileScope() *scope {
	return &scope{
		tainted: map[string]bool{},
		globals: map[string]bool{},
	}
}

// newChildScope creates the scope of a function declared inside s.
func (s *scope) newChildScope(node *common.Object) *scope {
	return &scope{
		level:   s.level + 1,
		node:    node,
		parent:  s,
		tainted: map[string]bool{},
		globals: map[string]bool{},
	}
}

func (s *scope) file() *scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

// owner returns the scope a variable name lives in as seen from s.
func (s *scope) owner(name string) *scope {
	if s.globals[name] {
		return s.file()
	}
	return s
}

func (s *scope) isTainted(name string) bool {
	return s.owner(name).tainted[name]
}

func (s *scope) setTainted(name string, tainted bool) {
	owner := s.owner(name)
	if tainted {
		owner.tainted[name] = true
	} else {
		delete(owner.tainted, name)
	}
}

func (s *scope) bindGlobal(name string) {
	if s.parent != nil {
		s.globals[name] = true
	}
}

// PHP functions do not see the variables of the code around them.
func isScopeKind(kind string) bool {
	return kind == "AST_FUNC_DECL" || kind == "AST_METHOD" || kind == "AST_CLOSURE"
}

// scopeFor returns the scope of the innermost function enclosing path,
// creating scopes on first use.
func (s *scan) scopeFor(path *common.Path) *scope {
	for p := path; p != nil; p = p.Others {
		if p.Parent == nil || !isScopeKind(p.Parent.Kind) {
			continue
		}
		if sc, ok := s.scopes[p.Parent]; ok {
			return sc
		}
		sc := s.scopeFor(p.Others).newChildScope(p.Parent)
		s.scopes[p.Parent] = sc
		return sc
	}
	return s.fileScope
}
