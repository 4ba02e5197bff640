// Package checker runs security rules over syntax documents.
package checker

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/spicery/astdoc/pkg/common"
	"github.com/spicery/astdoc/pkg/kinds"
	"github.com/spicery/astdoc/pkg/logger"
)

type Finding struct {
	RuleID   string   `json:"rule_id"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Advice   string   `json:"advice"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
}

// Bug records a rule that failed to evaluate.
type Bug struct {
	Message string
	File    string
	Line    int
}

// Checker evaluates rules over documents and accumulates what it finds. It
// is safe to call Check from several goroutines.
type Checker struct {
	Rules       []*Rule
	MinSeverity Severity
	Bugs        []Bug     // Accumulated rule evaluation failures.
	Findings    []Finding // Accumulated findings at or above MinSeverity.
	mu          sync.Mutex
}

func NewChecker(rules []*Rule, minSeverity Severity) *Checker {
	return &Checker{
		Rules:       rules,
		MinSeverity: minSeverity,
		Bugs:        []Bug{},
		Findings:    []Finding{},
	}
}

// Superglobals whose contents come from the request.
var superglobals = map[string]bool{
	"_GET":     true,
	"_POST":    true,
	"_REQUEST": true,
	"_COOKIE":  true,
	"_SERVER":  true,
	"_FILES":   true,
}

// Calls whose result is safe to use regardless of their input.
var sanitizers = map[string]bool{
	"htmlspecialchars":          true,
	"htmlentities":              true,
	"strip_tags":                true,
	"intval":                    true,
	"floatval":                  true,
	"boolval":                   true,
	"urlencode":                 true,
	"rawurlencode":              true,
	"escapeshellarg":            true,
	"escapeshellcmd":            true,
	"mysqli_real_escape_string": true,
	"real_escape_string":        true,
	"quote":                     true,
	"basename":                  true,
	"md5":                       true,
	"sha1":                      true,
	"hash":                      true,
	"count":                     true,
	"strlen":                    true,
	"is_numeric":                true,
	"in_array":                  true,
}

type summary struct {
	text string
	vars []string
}

// scan holds the state of one pass over one document.
type scan struct {
	file      string
	fileScope *scope
	scopes    map[*common.Object]*scope
	summaries map[*common.Object]*summary
}

// Check walks doc in source order, tracking tainted variables, and returns
// the findings of every rule that matches an object.
func (c *Checker) Check(file string, doc common.Document) []Finding {
	s := &scan{
		file:      file,
		fileScope: newFileScope(),
		scopes:    map[*common.Object]*scope{},
		summaries: map[*common.Object]*summary{},
	}
	var findings []Finding
	var bugs []Bug
	common.WalkObjects(doc, func(obj *common.Object, path *common.Path) bool {
		sc := s.scopeFor(path)
		s.markTainted(obj, sc)
		env := s.env(obj, path, sc)
		for _, rule := range c.Rules {
			if rule.Severity < c.MinSeverity {
				continue
			}
			matched, err := rule.Matches(env)
			if err != nil {
				bugs = append(bugs, Bug{Message: err.Error(), File: file, Line: obj.Lineno})
				continue
			}
			if matched {
				findings = append(findings, Finding{
					RuleID:   rule.ID,
					Title:    rule.Title,
					Severity: rule.Severity,
					Advice:   rule.Advice,
					File:     file,
					Line:     obj.Lineno,
				})
			}
		}
		return true
	})
	logger.L().Debug("checked document", "file", file, "findings", len(findings), "functions", len(s.scopes))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Findings = append(c.Findings, findings...)
	c.Bugs = append(c.Bugs, bugs...)
	return findings
}

func stringChild(obj *common.Object, name string) (string, bool) {
	s, ok := obj.Child(name).(common.Scalar)
	if !ok {
		return "", false
	}
	return s.AsString()
}

func objectChild(obj *common.Object, name string) *common.Object {
	child, _ := obj.Child(name).(*common.Object)
	return child
}

// nameOf returns the identifier an object is about: the called function or
// method, the variable, or the declared name. Function names are lower case
// and without namespace, as PHP resolves them case-insensitively.
func nameOf(obj *common.Object) string {
	switch obj.Kind {
	case "AST_CALL":
		if target := objectChild(obj, "expr"); target != nil && target.Kind == "AST_NAME" {
			name, _ := stringChild(target, "name")
			if i := strings.LastIndex(name, "\\"); i >= 0 {
				name = name[i+1:]
			}
			return strings.ToLower(name)
		}
	case "AST_METHOD_CALL", "AST_STATIC_CALL":
		name, _ := stringChild(obj, "method")
		return strings.ToLower(name)
	case "AST_CONST":
		if target := objectChild(obj, "name"); target != nil {
			name, _ := stringChild(target, "name")
			return name
		}
	default:
		name, _ := stringChild(obj, "name")
		return name
	}
	return ""
}

func (s *scan) markTainted(obj *common.Object, sc *scope) {
	switch obj.Kind {
	case "AST_GLOBAL":
		if target := objectChild(obj, "var"); target != nil && target.Kind == "AST_VAR" {
			if name, ok := stringChild(target, "name"); ok {
				sc.bindGlobal(name)
			}
		}
	case "AST_ASSIGN", "AST_ASSIGN_REF", "AST_ASSIGN_OP":
		target := objectChild(obj, "var")
		if target == nil || target.Kind != "AST_VAR" {
			return
		}
		name, ok := stringChild(target, "name")
		if !ok {
			return
		}
		if s.isTainted(obj.Child("expr"), sc) {
			sc.setTainted(name, true)
		} else if obj.Kind != "AST_ASSIGN_OP" {
			sc.setTainted(name, false)
		}
	case "AST_FOREACH":
		if !s.isTainted(obj.Child("expr"), sc) {
			return
		}
		for _, key := range []string{"key", "value"} {
			target := objectChild(obj, key)
			if target != nil && target.Kind == "AST_REF" {
				target = objectChild(target, "var")
			}
			if target != nil && target.Kind == "AST_VAR" {
				if name, ok := stringChild(target, "name"); ok {
					sc.setTainted(name, true)
				}
			}
		}
	}
}

// isTainted reports whether a document carries user input: a superglobal or
// a variable of sc that is tainted, not passed through a sanitizer or a
// scalar cast.
func (s *scan) isTainted(doc common.Document, sc *scope) bool {
	obj, ok := doc.(*common.Object)
	if !ok || obj == nil {
		return false
	}
	switch obj.Kind {
	case "AST_VAR":
		name, ok := stringChild(obj, "name")
		return ok && (superglobals[name] || sc.isTainted(name))
	case "AST_CALL", "AST_METHOD_CALL", "AST_STATIC_CALL":
		if sanitizers[nameOf(obj)] {
			return false
		}
	case "AST_CAST":
		switch obj.Flags {
		case kinds.TypeString, kinds.TypeArray, kinds.TypeObject:
		default:
			return false
		}
	case "AST_ISSET", "AST_EMPTY":
		return false
	}
	for _, entry := range obj.Children {
		if s.isTainted(entry.Value, sc) {
			return true
		}
	}
	return false
}

// identifierKeys hold names rather than data, so their strings are left out
// of an object's text.
var identifierKeys = map[string]bool{
	"name":   true,
	"method": true,
	"prop":   true,
	"const":  true,
}

func (s *scan) summarize(obj *common.Object) *summary {
	if sum, ok := s.summaries[obj]; ok {
		return sum
	}
	sum := &summary{}
	var text strings.Builder
	seen := map[string]bool{}
	addVar := func(name string) {
		if !seen[name] {
			seen[name] = true
			sum.vars = append(sum.vars, name)
		}
	}
	if obj.Kind == "AST_VAR" {
		if name, ok := stringChild(obj, "name"); ok {
			addVar(name)
		}
	}
	for _, entry := range obj.Children {
		switch v := entry.Value.(type) {
		case common.Scalar:
			if str, ok := v.AsString(); ok && !(entry.Key.IsNamed() && identifierKeys[entry.Key.Name()]) {
				text.WriteString(str)
			}
		case *common.Object:
			if v == nil {
				continue
			}
			child := s.summarize(v)
			text.WriteString(child.text)
			for _, name := range child.vars {
				addVar(name)
			}
		}
	}
	sum.text = text.String()
	s.summaries[obj] = sum
	return sum
}

func (s *scan) args(obj *common.Object, sc *scope) []Arg {
	switch obj.Kind {
	case "AST_CALL", "AST_METHOD_CALL", "AST_STATIC_CALL", "AST_NEW":
	default:
		return nil
	}
	list := objectChild(obj, "args")
	if list == nil {
		return nil
	}
	args := make([]Arg, 0, len(list.Children))
	for _, entry := range list.Children {
		switch v := entry.Value.(type) {
		case common.Scalar:
			text, _ := v.AsString()
			args = append(args, Arg{Text: text})
		case *common.Object:
			sum := s.summarize(v)
			args = append(args, Arg{Text: sum.text, Vars: sum.vars, Tainted: s.isTainted(v, sc)})
		}
	}
	return args
}

func (s *scan) env(obj *common.Object, path *common.Path, sc *scope) Env {
	sum := s.summarize(obj)
	return Env{
		Kind:    obj.Kind,
		Flags:   obj.Flags,
		Lineno:  obj.Lineno,
		Name:    nameOf(obj),
		Text:    sum.text,
		Vars:    sum.vars,
		Tainted: s.isTainted(obj, sc),
		Args:    s.args(obj, sc),
		Depth:   sc.level,
		Parent:  path.ParentKind(),
		Inside: func(kind string) bool {
			for p := path; p != nil; p = p.Others {
				if p.Parent != nil && p.Parent.Kind == kind {
					return true
				}
			}
			return false
		},
	}
}

// SortFindings orders findings by file, line and rule.
func SortFindings(findings []Finding) {
	slices.SortStableFunc(findings, func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
}

// ReportFindings writes the accumulated bugs and findings, sorted, to w.
func (c *Checker) ReportFindings(w io.Writer, colors *common.Colors) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if colors == nil {
		colors = common.PlainColors()
	}
	if len(c.Bugs) > 0 {
		fmt.Fprintln(w, "Rules failed to evaluate:")
		for i, bug := range c.Bugs {
			fmt.Fprintf(w, "  [%d]. %s, at %s line %d\n", i+1, bug.Message, bug.File, bug.Line)
		}
	}
	if len(c.Findings) == 0 {
		return
	}
	SortFindings(c.Findings)
	fmt.Fprintln(w, "Findings in the source code:")
	for i, f := range c.Findings {
		fmt.Fprintf(w, "  [%d]. %s %s %s, at %s line %d\n",
			i+1, severityColor(colors, f.Severity)(f.Severity), colors.Field(f.RuleID), f.Title, f.File, f.Line)
		if f.Advice != "" {
			fmt.Fprintf(w, "       %s\n", colors.Punct(f.Advice))
		}
	}
}

func severityColor(colors *common.Colors, s Severity) func(a ...any) string {
	switch s {
	case SeverityCritical:
		return colors.Kind
	case SeverityWarning:
		return colors.Literal
	default:
		return colors.Number
	}
}

// MarshalText writes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
