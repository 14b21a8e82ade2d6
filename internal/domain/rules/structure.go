package rules

import (
	"fmt"

	m "ferrule.dev/pkg/ferrule/internal/model"
	"ferrule.dev/pkg/ferrule/internal/syntax"
)

// Structure flags oversized types: god structs, huge enums, impls and traits
// with too many methods.
type Structure struct {
	cfg StructureConfig
}

// NewStructure creates the structure rule.
func NewStructure(cfg StructureConfig) *Structure {
	return &Structure{cfg: cfg}
}

func (r *Structure) ID() m.RuleID { return StructureID }

func (r *Structure) Description() string {
	return "Structs, enums, impls and traits with too many members"
}

func (r *Structure) DefaultSeverity() m.Severity { return m.SeverityWarning }

func (r *Structure) Subscription() Subscription {
	return Subscription{Nodes: []syntax.NodeKind{
		syntax.NodeStruct, syntax.NodeEnum, syntax.NodeImpl, syntax.NodeTrait,
	}}
}

func (r *Structure) Evaluate(ctx *Context) []m.Finding {
	if r.cfg.ExemptTests && ctx.InTest() {
		return nil
	}

	f := ctx.File
	n := ctx.Current()

	var (
		count, limit int
		member       string
	)

	switch n.Kind {
	case syntax.NodeStruct:
		count, limit, member = countKind(f, n, syntax.NodeField), r.cfg.MaxFields, "fields"
	case syntax.NodeEnum:
		count, limit, member = countKind(f, n, syntax.NodeVariant), r.cfg.MaxVariants, "variants"
	case syntax.NodeImpl:
		count, limit, member = countKind(f, n, syntax.NodeFunction), r.cfg.MaxImplMethods, "methods"
	case syntax.NodeTrait:
		count, limit, member = countKind(f, n, syntax.NodeFunction), r.cfg.MaxTraitMethods, "methods"
	default:
		return nil
	}

	if count <= limit {
		return nil
	}

	msg := fmt.Sprintf("%s `%s` has %d %s (max %d); consider splitting it", n.Kind, n.Name, count, member, limit)

	return []m.Finding{ctx.Finding(headerSpan(n), msg)}
}
