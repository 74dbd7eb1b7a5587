package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/diegoholiveira/jsonlogic/v3"
	"gopkg.in/yaml.v3"
)

// Rule gates one payment method. When is a jsonlogic expression evaluated
// against {"method": ..., "cart_class": ...}; the first matching rule wins.
// Deny rules reject the method with a named reason instead of admitting it.
type Rule struct {
	Method Method `yaml:"method"`
	When   any    `yaml:"when"`
	Timing Timing `yaml:"timing"`
	Deny   bool   `yaml:"deny"`
	Reason string `yaml:"reason"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// Engine evaluates payment eligibility from a data-driven rule pack. Policy
// changes are edits to the rules file, not code changes.
type Engine struct {
	rules []Rule
}

func LoadEngine(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payment rules: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("%w: empty rule pack", ErrInvalidRules)
	}
	return NewEngine(file.Rules), nil
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// DefaultRules encodes the store policy: cash and card are always settled at
// delivery; PIX may be prepaid only when every item has a fixed price.
func DefaultRules() []Rule {
	fixedOnly := map[string]any{
		"==": []any{map[string]any{"var": "cart_class"}, string(CartFixedWeightOnly)},
	}
	variable := map[string]any{
		"==": []any{map[string]any{"var": "cart_class"}, string(CartVariableWeight)},
	}
	return []Rule{
		{Method: MethodPix, When: fixedOnly, Timing: PayPrepaid},
		{Method: MethodPix, When: variable, Deny: true, Reason: "pix_prepaid_requires_fixed_weight_cart"},
		{Method: MethodCash, When: true, Timing: PayOnDelivery},
		{Method: MethodCard, When: true, Timing: PayOnDelivery},
	}
}

// Evaluate runs the rule pack for one method against the current cart class.
func (e *Engine) Evaluate(method Method, class CartClass) (Decision, error) {
	facts := map[string]any{
		"method":     string(method),
		"cart_class": string(class),
	}

	known := false
	for _, rule := range e.rules {
		if rule.Method != method {
			continue
		}
		known = true

		match, err := evalCondition(rule.When, facts)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrInvalidRules, err)
		}
		if !match {
			continue
		}

		if rule.Deny {
			return Decision{}, denialFor(method, rule.Reason)
		}
		return Decision{Method: method, Timing: rule.Timing}, nil
	}

	if known {
		// Rules exist for the method but none admitted this cart.
		return Decision{}, denialFor(method, "")
	}
	return Decision{}, fmt.Errorf("%w: %s", ErrMethodNotAllowed, method)
}

func denialFor(method Method, reason string) error {
	if method == MethodPix || reason == "pix_prepaid_requires_fixed_weight_cart" {
		return ErrPixNotAllowedPrepaid
	}
	return fmt.Errorf("%w: %s", ErrMethodNotAllowed, method)
}

func evalCondition(when any, facts map[string]any) (bool, error) {
	if when == nil {
		return true, nil
	}
	if b, ok := when.(bool); ok {
		return b, nil
	}

	ruleJSON, err := json.Marshal(when)
	if err != nil {
		return false, err
	}
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return false, err
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(factsJSON), &result); err != nil {
		return false, err
	}

	var verdict any
	if err := json.Unmarshal(result.Bytes(), &verdict); err != nil {
		return false, err
	}
	b, ok := verdict.(bool)
	return ok && b, nil
}
