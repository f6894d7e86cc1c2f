// Package visibility decides which order fields a viewer may see and projects
// orders into views that never carry hidden fields.
package visibility

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/cel-go/cel"

	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/security"
)

// Field is a margin-sensitive part of an order view.
type Field string

const (
	FieldUnitCost       Field = "unitCost"
	FieldUnitPrice      Field = "unitPrice"
	FieldTotalValue     Field = "totalValue"
	FieldFreightValue   Field = "freightValue"
	FieldTotalCostValue Field = "totalCostValue"
	FieldProfit         Field = "profit"
	FieldProfitPercent  Field = "profitPercent"
	FieldReceivable     Field = "receivable"
	FieldPayable        Field = "payable"
	FieldSupplier       Field = "supplier"
	FieldInternalNotes  Field = "internalNotes"
)

// Fields lists every field governed by the policy.
func Fields() []Field {
	return []Field{
		FieldUnitCost, FieldUnitPrice, FieldTotalValue, FieldFreightValue,
		FieldTotalCostValue, FieldProfit, FieldProfitPercent, FieldReceivable,
		FieldPayable, FieldSupplier, FieldInternalNotes,
	}
}

// CostFields are only ever visible to admin or finance viewers.
func CostFields() []Field {
	return []Field{
		FieldUnitCost, FieldTotalCostValue, FieldProfit, FieldProfitPercent,
		FieldPayable, FieldInternalNotes,
	}
}

const (
	ruleFinance = `"admin" in caps || "finance" in caps`
	ruleSale    = `!("factory" in caps) || "admin" in caps || "finance" in caps`
	ruleLocale  = `!("restricted_locale" in caps) || "admin" in caps`
)

// Rules maps a field to a CEL boolean expression over
// caps (list of capability strings) and identity (string).
type Rules map[Field]string

// DefaultRules is the standard rule table.
func DefaultRules() Rules {
	return Rules{
		FieldUnitCost:       ruleFinance,
		FieldTotalCostValue: ruleFinance,
		FieldProfit:         ruleFinance,
		FieldProfitPercent:  ruleFinance,
		FieldPayable:        ruleFinance,
		FieldInternalNotes:  ruleFinance,
		FieldUnitPrice:      ruleSale,
		FieldTotalValue:     ruleSale,
		FieldFreightValue:   ruleSale,
		FieldReceivable:     ruleSale,
		FieldSupplier:       ruleLocale,
	}
}

// Overrides patch the capability set of individual identities before rules
// are evaluated. Keys are identities, compared case insensitively.
type Overrides map[string]security.Patch

// LoadOverrides decodes an override table:
//
//	{"ana@example.com": {"grant": ["finance"], "revoke": ["factory"]}}
func LoadOverrides(r io.Reader) (Overrides, error) {
	var raw map[string]security.Patch
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode visibility overrides: %w", err)
	}
	out := make(Overrides, len(raw))
	for identity, patch := range raw {
		for _, c := range append(append([]security.Capability{}, patch.Grant...), patch.Revoke...) {
			if !security.IsKnown(c) {
				return nil, fmt.Errorf("override for %q: unknown capability %q", identity, c)
			}
		}
		out[normalizeIdentity(identity)] = patch
	}
	return out, nil
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Policy evaluates compiled rules for viewers. Safe for concurrent use.
type Policy struct {
	programs  map[Field]cel.Program
	overrides Overrides
}

// NewPolicy compiles rules on top of DefaultRules.
// Every expression must type-check to bool.
func NewPolicy(rules Rules, overrides Overrides) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("caps", cel.ListType(cel.StringType)),
		cel.Variable("identity", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	merged := DefaultRules()
	for f, src := range rules {
		if !isField(f) {
			return nil, fmt.Errorf("unknown field %q", f)
		}
		merged[f] = src
	}

	programs := make(map[Field]cel.Program, len(merged))
	for f, src := range merged {
		ast, iss := env.Compile(src)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %s: %w", f, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s must evaluate to bool, got %s", f, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %s: %w", f, err)
		}
		programs[f] = prg
	}

	normalized := make(Overrides, len(overrides))
	for identity, patch := range overrides {
		normalized[normalizeIdentity(identity)] = patch
	}
	return &Policy{programs: programs, overrides: normalized}, nil
}

// MustDefaultPolicy returns the standard policy without overrides.
func MustDefaultPolicy() *Policy {
	p, err := NewPolicy(nil, nil)
	if err != nil {
		panic(err)
	}
	return p
}

func isField(f Field) bool {
	for _, known := range Fields() {
		if known == f {
			return true
		}
	}
	return false
}

// Effective returns the viewer's capabilities after identity overrides.
func (p *Policy) Effective(v *appctx.Viewer) security.Set {
	if v == nil {
		return security.Set{}
	}
	set := security.NewSet(v.Capabilities...)
	if patch, ok := p.overrides[normalizeIdentity(v.Identity)]; ok {
		set = patch.Apply(set)
	}
	return set
}

// Variant is the aggregate figure set a viewer receives.
type Variant string

const (
	// VariantFull carries sale, cost and profit figures.
	VariantFull Variant = "full"
	// VariantSale carries sale figures only.
	VariantSale Variant = "sale"
	// VariantNone carries no monetary aggregates.
	VariantNone Variant = "none"
)

// Decision is the evaluated visibility for one viewer.
type Decision struct {
	visible map[Field]bool
	Variant Variant
	Caps    security.Set
}

// Can reports whether the field is visible.
func (d Decision) Can(f Field) bool {
	return d.visible[f]
}

// Visible lists the visible fields in declaration order.
func (d Decision) Visible() []Field {
	var out []Field
	for _, f := range Fields() {
		if d.visible[f] {
			out = append(out, f)
		}
	}
	return out
}

// Decide evaluates every rule for the viewer. Rules that fail to evaluate
// hide their field. Cost fields are hidden from viewers without admin or
// finance regardless of the rule table.
func (p *Policy) Decide(v *appctx.Viewer) Decision {
	caps := p.Effective(v)
	identity := ""
	if v != nil {
		identity = normalizeIdentity(v.Identity)
	}
	vars := map[string]any{
		"caps":     caps.Strings(),
		"identity": identity,
	}

	visible := make(map[Field]bool, len(p.programs))
	for f, prg := range p.programs {
		out, _, err := prg.Eval(vars)
		if err != nil {
			continue
		}
		if b, ok := out.Value().(bool); ok && b {
			visible[f] = true
		}
	}

	if !caps.HasAny(security.CapAdmin, security.CapFinance) {
		for _, f := range CostFields() {
			delete(visible, f)
		}
	}

	d := Decision{visible: visible, Caps: caps}
	switch {
	case visible[FieldTotalValue] && visible[FieldTotalCostValue] && visible[FieldProfit]:
		d.Variant = VariantFull
	case visible[FieldTotalValue]:
		d.Variant = VariantSale
	default:
		d.Variant = VariantNone
	}
	return d
}
