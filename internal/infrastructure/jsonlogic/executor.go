package jsonlogic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"
)

// Operator is a custom guard operator. Arguments arrive with vars resolved.
type Operator func(args ...any) any

// GuardExecutor evaluates checkout guards with JsonLogic. A rule whose root
// operator is a registered custom operator is evaluated here; anything else
// goes to the jsonlogic library.
type GuardExecutor struct {
	customOps map[string]Operator
}

func NewGuardExecutor() *GuardExecutor {
	g := &GuardExecutor{customOps: make(map[string]Operator)}
	g.RegisterOperator("outside_length", OutsideLength)
	g.RegisterOperator("not_matching", NotMatching)
	return g
}

func (g *GuardExecutor) RegisterOperator(name string, op Operator) {
	g.customOps[name] = op
}

// Evaluate applies logic to data and reports the truthiness of the result.
func (g *GuardExecutor) Evaluate(ctx context.Context, logic map[string]any, data map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	for name, op := range g.customOps {
		if args, ok := logic[name]; ok {
			return truthy(op(resolveArgs(args, data)...)), nil
		}
	}

	ruleJSON, err := json.Marshal(logic)
	if err != nil {
		return false, fmt.Errorf("guard rule is not JSON-encodable: %w", err)
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("guard data is not JSON-encodable: %w", err)
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &out); err != nil {
		return false, fmt.Errorf("guard evaluation failed: %w", err)
	}

	var res any
	if out.Len() == 0 {
		return false, nil
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		return false, fmt.Errorf("guard result: %w", err)
	}
	return truthy(res), nil
}

// Validate reports whether logic is a well-formed rule.
func (g *GuardExecutor) Validate(logic map[string]any) error {
	for name := range g.customOps {
		if args, ok := logic[name]; ok {
			if _, isList := args.([]any); !isList {
				return fmt.Errorf("operator %s expects an argument list", name)
			}
			return nil
		}
	}
	ruleJSON, err := json.Marshal(logic)
	if err != nil {
		return err
	}
	if !jsonlogic.IsValid(bytes.NewReader(ruleJSON)) {
		return fmt.Errorf("invalid jsonlogic rule: %s", ruleJSON)
	}
	return nil
}

func resolveArgs(args any, data map[string]any) []any {
	list, ok := args.([]any)
	if !ok {
		return []any{resolveVar(args, data)}
	}
	params := make([]any, 0, len(list))
	for _, a := range list {
		params = append(params, resolveVar(a, data))
	}
	return params
}

// resolveVar replaces {"var": "a.b"} with the value at that path, or nil.
func resolveVar(arg any, data map[string]any) any {
	m, ok := arg.(map[string]any)
	if !ok {
		return arg
	}
	path, ok := m["var"].(string)
	if !ok {
		return arg
	}
	var cur any = data
	for _, key := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = node[key]
	}
	return cur
}

// truthy follows JsonLogic truthiness: false, null, 0, "" and [] are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
