package checker

import (
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

var severityNames = []string{"info", "warning", "critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity accepts the severity names case-insensitively.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), nil
		}
	}
	return SeverityInfo, fmt.Errorf("unknown severity '%s' (expected info, warning or critical)", name)
}

// RulesConfig is the YAML layout of a rule file.
type RulesConfig struct {
	Name  string       `yaml:"name,omitempty"`
	Rules []RuleConfig `yaml:"rules"`
}

type RuleConfig struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Severity string `yaml:"severity"`
	Advice   string `yaml:"advice,omitempty"`
	When     string `yaml:"when"`
}

// Rule is a compiled rule ready to be evaluated against objects.
type Rule struct {
	ID       string
	Title    string
	Severity Severity
	Advice   string
	When     string
	program  *vm.Program
}

// Env is what a rule's when expression can see about the current object.
type Env struct {
	Kind    string   `expr:"kind"`
	Flags   int      `expr:"flags"`
	Lineno  int      `expr:"lineno"`
	Name    string   `expr:"name"`    // Called function or method, variable name
	Text    string   `expr:"text"`    // String literals of the subtree, concatenated
	Vars    []string `expr:"vars"`    // Variables used in the subtree
	Tainted bool     `expr:"tainted"` // Subtree carries user input
	Args    []Arg    `expr:"args"`    // Call arguments, empty for non-calls
	Parent  string   `expr:"parent"`  // Kind of the enclosing object
	Depth   int      `expr:"depth"`   // Function nesting, 0 at file level

	// Inside reports whether some ancestor has the given kind.
	Inside func(kind string) bool `expr:"inside"`
}

type Arg struct {
	Text    string   `expr:"text"`
	Vars    []string `expr:"vars"`
	Tainted bool     `expr:"tainted"`
}

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.Env(Env{}),
		expr.AsBool(),
	}
}

// ParseRules reads and compiles rules from YAML.
func ParseRules(data []byte) ([]*Rule, error) {
	var config RulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	seen := map[string]bool{}
	rules := make([]*Rule, 0, len(config.Rules))
	for _, rc := range config.Rules {
		if rc.ID == "" {
			return nil, fmt.Errorf("rule \"%s\" has no id", rc.Title)
		}
		if seen[rc.ID] {
			return nil, fmt.Errorf("duplicate rule id \"%s\"", rc.ID)
		}
		seen[rc.ID] = true
		rule, err := rc.Compile()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRules reads and compiles a YAML rule file.
func LoadRules(filename string) ([]*Rule, error) {
	data, err := os.ReadFile(filename) // #nosec G304 - CLI tool reads user-specified rule files
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file '%s': %w", filename, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return rules, nil
}

// DefaultRuleSet returns the compiled built-in rules.
func DefaultRuleSet() ([]*Rule, error) {
	return ParseRules([]byte(DefaultRules))
}

func (rc RuleConfig) Compile() (*Rule, error) {
	severity, err := ParseSeverity(rc.Severity)
	if err != nil {
		return nil, fmt.Errorf("error in rule \"%s\": %w", rc.ID, err)
	}
	if strings.TrimSpace(rc.When) == "" {
		return nil, fmt.Errorf("error in rule \"%s\": missing when expression", rc.ID)
	}
	program, err := expr.Compile(rc.When, exprOptions()...)
	if err != nil {
		return nil, fmt.Errorf("error in rule \"%s\": %w", rc.ID, err)
	}
	return &Rule{
		ID:       rc.ID,
		Title:    rc.Title,
		Severity: severity,
		Advice:   rc.Advice,
		When:     rc.When,
		program:  program,
	}, nil
}

// Matches evaluates the rule against env.
func (r *Rule) Matches(env Env) (bool, error) {
	result, err := expr.Run(r.program, env)
	if err != nil {
		return false, fmt.Errorf("rule \"%s\": %w", r.ID, err)
	}
	matched, _ := result.(bool)
	return matched, nil
}
