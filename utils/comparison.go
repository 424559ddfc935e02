package utils

import (
	"encoding/json"
	"fmt"
)

// CompareOp is a catalog property filter operator.
type CompareOp string

const (
	OpLe CompareOp = "le"
	OpLt CompareOp = "lt"
	OpEq CompareOp = "eq"
	OpGe CompareOp = "ge"
	OpGt CompareOp = "gt"
	OpIn CompareOp = "in"
)

var validOps = map[CompareOp]bool{
	OpLe: true, OpLt: true, OpEq: true, OpGe: true, OpGt: true, OpIn: true,
}

// Comparison is a single-operator property filter, the typed form of
// the operator-keyed objects ({"gt": 10}) the catalog query uses.
type Comparison struct {
	Op    CompareOp
	Value interface{}
}

func NewComparison(op CompareOp, value interface{}) *Comparison {
	return &Comparison{Op: op, Value: value}
}

func (c *Comparison) MarshalJSON() ([]byte, error) {
	if !validOps[c.Op] {
		return nil, fmt.Errorf("invalid comparison operator: %q", c.Op)
	}
	return json.Marshal(map[string]interface{}{string(c.Op): c.Value})
}

func (c *Comparison) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		// empty filter objects mean "no constraint"
		c.Op = ""
		c.Value = nil
		return nil
	}
	if len(raw) != 1 {
		return fmt.Errorf("comparison must hold exactly one operator, got %d", len(raw))
	}
	for op, val := range raw {
		if !validOps[CompareOp(op)] {
			return fmt.Errorf("invalid comparison operator: %q", op)
		}
		c.Op = CompareOp(op)
		c.Value = val
	}
	return nil
}

// UnmarshalYAML accepts the same operator-keyed shape from YAML configs.
func (c *Comparison) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := map[string]interface{}{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		c.Op = ""
		c.Value = nil
		return nil
	}
	if len(raw) != 1 {
		return fmt.Errorf("comparison must hold exactly one operator, got %d", len(raw))
	}
	for op, val := range raw {
		if !validOps[CompareOp(op)] {
			return fmt.Errorf("invalid comparison operator: %q", op)
		}
		c.Op = CompareOp(op)
		c.Value = val
	}
	return nil
}

// IsZero reports whether the comparison carries no constraint.
func (c *Comparison) IsZero() bool {
	return c == nil || c.Op == ""
}
