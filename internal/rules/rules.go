// Package rules loads the moderation rule set applied by the judge.
//
// A RuleSet is loaded once per process and never changes afterwards. The
// embedded default carries the competition rules; operators can point
// rules.path at a .txt, .yaml/.yml or .toml file instead.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"clipguard/internal/services"
	"clipguard/internal/textutil"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Kind says whether a rule forbids or explicitly permits content.
type Kind string

const (
	KindProhibited Kind = "prohibited"
	KindAllowed    Kind = "allowed"
)

// Label is the Portuguese tag rendered in front of the rule text.
func (k Kind) Label() string {
	if k == KindAllowed {
		return "PERMITIDO"
	}
	return "PROIBIDO"
}

// Rule is a single numbered entry of the rule set.
type Rule struct {
	ID   string `yaml:"id" toml:"id" json:"id"`
	Kind Kind   `yaml:"kind" toml:"kind" json:"kind"`
	Text string `yaml:"text" toml:"text" json:"text"`
}

// RuleSet is an immutable, ordered list of rules.
type RuleSet struct {
	rules  []Rule
	text   string
	source string
}

// Rules returns a copy of the rules in order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len reports the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Source names where the rules came from ("embedded" or a file path).
func (rs *RuleSet) Source() string {
	return rs.source
}

// Text renders the rule set as fed to the judge.
func (rs *RuleSet) Text() string {
	return rs.text
}

// Default returns the embedded competition rules.
func Default() *RuleSet {
	rs, err := parseYAML(defaultRulesYAML, "embedded")
	if err != nil {
		panic(fmt.Sprintf("embedded rules invalid: %v", err))
	}
	return rs
}

// Load reads rules from path, or returns Default when path is empty.
func Load(path string) (*RuleSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rules", "read", path, err)
	}

	var rs *RuleSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rs, err = parseYAML(data, path)
	case ".toml":
		rs, err = parseTOML(data, path)
	case ".txt", "":
		rs, err = parseText(string(data), path)
	default:
		err = fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "rules", "parse", path, err)
	}
	return rs, nil
}

func parseYAML(data []byte, source string) (*RuleSet, error) {
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return build(doc.Rules, source)
}

func parseTOML(data []byte, source string) (*RuleSet, error) {
	var doc struct {
		Rule []Rule `toml:"rule"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return build(doc.Rule, source)
}

var numberedLine = regexp.MustCompile(`^\s*(\d+)[.)]\s*(.*)$`)

// parseText keeps the file verbatim as the judge text and extracts numbered
// "N. PROIBIDO: ..." lines as structured rules when present.
func parseText(content, source string) (*RuleSet, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, fmt.Errorf("empty rule file")
	}
	var parsed []Rule
	for _, line := range strings.Split(text, "\n") {
		match := numberedLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		body := strings.TrimSpace(match[2])
		kind := KindProhibited
		if label, rest, ok := strings.Cut(body, ":"); ok {
			switch textutil.Fold(label) {
			case "PERMITIDO", "ALLOWED":
				kind = KindAllowed
				body = strings.TrimSpace(rest)
			case "PROIBIDO", "PROHIBITED":
				body = strings.TrimSpace(rest)
			}
		}
		parsed = append(parsed, Rule{ID: "r" + match[1], Kind: kind, Text: body})
	}
	return &RuleSet{rules: parsed, text: text, source: source}, nil
}

func build(list []Rule, source string) (*RuleSet, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}
	rules := make([]Rule, 0, len(list))
	var b strings.Builder
	for i, rule := range list {
		rule.Text = textutil.CollapseSpace(rule.Text)
		if rule.Text == "" {
			return nil, fmt.Errorf("rule %d: text required", i+1)
		}
		rule.Kind = Kind(strings.ToLower(strings.TrimSpace(string(rule.Kind))))
		switch rule.Kind {
		case "":
			rule.Kind = KindProhibited
		case KindProhibited, KindAllowed:
		default:
			return nil, fmt.Errorf("rule %d: unknown kind %q", i+1, rule.Kind)
		}
		if strings.TrimSpace(rule.ID) == "" {
			rule.ID = "r" + strconv.Itoa(i+1)
		}
		rules = append(rules, rule)
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, rule.Kind.Label(), rule.Text)
	}
	return &RuleSet{rules: rules, text: strings.TrimSpace(b.String()), source: source}, nil
}
