package rules

import (
	"fmt"
	"math"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// Common holds the settings every rule understands.
type Common struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Severity overrides the rule's default severity when set.
	Severity string `mapstructure:"severity" yaml:"severity"`
	// ExemptTests silences the rule inside #[test] and #[cfg(test)] regions.
	ExemptTests bool `mapstructure:"exempt_tests" yaml:"exempt_tests"`
}

// ResolveSeverity returns the configured severity or fallback when unset.
func (c Common) ResolveSeverity(fallback m.Severity) (m.Severity, error) {
	if c.Severity == "" {
		return fallback, nil
	}

	return m.ParseSeverity(c.Severity)
}

// MagicNumberConfig configures the magic-number rule.
type MagicNumberConfig struct {
	Common  `mapstructure:",squash" yaml:",inline"`
	Allowed []float64 `mapstructure:"allowed" yaml:"allowed"`
}

// CommentedCodeConfig configures the commented-code rule.
type CommentedCodeConfig struct {
	Common `mapstructure:",squash" yaml:",inline"`
	// MinLines is the number of code-looking lines a comment run needs.
	MinLines int `mapstructure:"min_lines" yaml:"min_lines"`
}

// TodoCommentConfig configures the todo-comment rule.
type TodoCommentConfig struct {
	Common  `mapstructure:",squash" yaml:",inline"`
	Markers []string `mapstructure:"markers" yaml:"markers"`
	// High lists the markers reported as warnings instead of info.
	High []string `mapstructure:"high" yaml:"high"`
}

// MissingDocsConfig configures the missing-docs rule.
type MissingDocsConfig struct {
	Common `mapstructure:",squash" yaml:",inline"`
	// IncludeRestricted also checks pub(crate) and pub(super) items.
	IncludeRestricted bool `mapstructure:"include_restricted" yaml:"include_restricted"`
}

// Casing styles accepted by the naming rule.
const (
	StylePascal         = "pascal"
	StyleSnake          = "snake"
	StyleScreamingSnake = "screaming_snake"
	StyleCamel          = "camel"
)

// Declaration kinds the naming policy is keyed by.
const (
	DeclType      = "type"
	DeclVariant   = "variant"
	DeclFunction  = "function"
	DeclVariable  = "variable"
	DeclParameter = "parameter"
	DeclModule    = "module"
	DeclField     = "field"
	DeclConstant  = "constant"
	DeclStatic    = "static"
	DeclMacro     = "macro"
)

// NamingConfig configures the naming rule.
type NamingConfig struct {
	Common `mapstructure:",squash" yaml:",inline"`
	// Styles maps a declaration kind to a casing style.
	Styles map[string]string `mapstructure:"styles" yaml:"styles"`
}

// UnsafeUsageConfig configures the unsafe-usage rule.
type UnsafeUsageConfig struct {
	Common `mapstructure:",squash" yaml:",inline"`
	// CheckUnnecessary reports unsafe blocks that perform no unsafe operation.
	CheckUnnecessary bool `mapstructure:"check_unnecessary" yaml:"check_unnecessary"`
}

// ErrorHandlingConfig configures the error-handling rule.
type ErrorHandlingConfig struct {
	Common  `mapstructure:",squash" yaml:",inline"`
	Methods []string `mapstructure:"methods" yaml:"methods"`
	Macros  []string `mapstructure:"macros" yaml:"macros"`
}

// ComplexityConfig configures the complexity rule.
type ComplexityConfig struct {
	Common        `mapstructure:",squash" yaml:",inline"`
	MaxStatements int `mapstructure:"max_statements" yaml:"max_statements"`
	MaxParams     int `mapstructure:"max_params" yaml:"max_params"`
	MaxNesting    int `mapstructure:"max_nesting" yaml:"max_nesting"`
	MaxComplexity int `mapstructure:"max_complexity" yaml:"max_complexity"`
}

// StructureConfig configures the structure rule.
type StructureConfig struct {
	Common          `mapstructure:",squash" yaml:",inline"`
	MaxFields       int `mapstructure:"max_fields" yaml:"max_fields"`
	MaxVariants     int `mapstructure:"max_variants" yaml:"max_variants"`
	MaxImplMethods  int `mapstructure:"max_impl_methods" yaml:"max_impl_methods"`
	MaxTraitMethods int `mapstructure:"max_trait_methods" yaml:"max_trait_methods"`
}

// PatternMatchingConfig configures the pattern-matching rule.
type PatternMatchingConfig struct {
	Common          `mapstructure:",squash" yaml:",inline"`
	MaxDepth        int `mapstructure:"max_depth" yaml:"max_depth"`
	MaxAlternatives int `mapstructure:"max_alternatives" yaml:"max_alternatives"`
}

// OwnershipConfig configures the ownership rule.
type OwnershipConfig struct {
	Common       `mapstructure:",squash" yaml:",inline"`
	MaxLifetimes int `mapstructure:"max_lifetimes" yaml:"max_lifetimes"`
	// ReadOnlyMethods are the calls that only read their receiver.
	ReadOnlyMethods []string `mapstructure:"read_only_methods" yaml:"read_only_methods"`
}

// DuplicateCodeConfig configures the duplication detector.
type DuplicateCodeConfig struct {
	Common              `mapstructure:",squash" yaml:",inline"`
	MinTokens           int     `mapstructure:"min_tokens" yaml:"min_tokens"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	// ProjectWide groups duplicates across files after all files finish.
	ProjectWide bool `mapstructure:"project_wide" yaml:"project_wide"`
}

// UnusedSuppressionConfig configures the unused-suppression meta rule.
type UnusedSuppressionConfig struct {
	Common `mapstructure:",squash" yaml:",inline"`
}

// Config is the rule section of the ferrule configuration.
type Config struct {
	// Order fixes the dispatch order of the rules. Rules missing from the
	// list run after the listed ones, in default order.
	Order             []string                `mapstructure:"order" yaml:"order"`
	MagicNumber       MagicNumberConfig       `mapstructure:"magic_number" yaml:"magic_number"`
	CommentedCode     CommentedCodeConfig     `mapstructure:"commented_code" yaml:"commented_code"`
	TodoComment       TodoCommentConfig       `mapstructure:"todo_comment" yaml:"todo_comment"`
	MissingDocs       MissingDocsConfig       `mapstructure:"missing_docs" yaml:"missing_docs"`
	Naming            NamingConfig            `mapstructure:"naming" yaml:"naming"`
	UnsafeUsage       UnsafeUsageConfig       `mapstructure:"unsafe_usage" yaml:"unsafe_usage"`
	ErrorHandling     ErrorHandlingConfig     `mapstructure:"error_handling" yaml:"error_handling"`
	Complexity        ComplexityConfig        `mapstructure:"complexity" yaml:"complexity"`
	Structure         StructureConfig         `mapstructure:"structure" yaml:"structure"`
	PatternMatching   PatternMatchingConfig   `mapstructure:"pattern_matching" yaml:"pattern_matching"`
	Ownership         OwnershipConfig         `mapstructure:"ownership" yaml:"ownership"`
	DuplicateCode     DuplicateCodeConfig     `mapstructure:"duplicate_code" yaml:"duplicate_code"`
	UnusedSuppression UnusedSuppressionConfig `mapstructure:"unused_suppression" yaml:"unused_suppression"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	on := Common{Enabled: true}
	onExempt := Common{Enabled: true, ExemptTests: true}

	return Config{
		Order:         IDStrings(DefaultOrder()),
		MagicNumber:   MagicNumberConfig{Common: onExempt, Allowed: []float64{0, 1, -1}},
		CommentedCode: CommentedCodeConfig{Common: on, MinLines: 1},
		TodoComment: TodoCommentConfig{
			Common:  on,
			Markers: []string{"TODO", "FIXME", "HACK", "XXX", "BUG"},
			High:    []string{"FIXME", "BUG"},
		},
		MissingDocs: MissingDocsConfig{Common: onExempt},
		Naming: NamingConfig{
			Common: on,
			Styles: map[string]string{
				DeclType:      StylePascal,
				DeclVariant:   StylePascal,
				DeclFunction:  StyleSnake,
				DeclVariable:  StyleSnake,
				DeclParameter: StyleSnake,
				DeclModule:    StyleSnake,
				DeclField:     StyleSnake,
				DeclConstant:  StyleScreamingSnake,
				DeclStatic:    StyleScreamingSnake,
				DeclMacro:     StyleSnake,
			},
		},
		UnsafeUsage: UnsafeUsageConfig{Common: on, CheckUnnecessary: true},
		ErrorHandling: ErrorHandlingConfig{
			Common:  onExempt,
			Methods: []string{"unwrap", "expect"},
			Macros:  []string{"panic", "todo", "unimplemented", "unreachable"},
		},
		Complexity: ComplexityConfig{
			Common:        on,
			MaxStatements: 25,
			MaxParams:     4,
			MaxNesting:    3,
			MaxComplexity: 8,
		},
		Structure: StructureConfig{
			Common:          on,
			MaxFields:       15,
			MaxVariants:     20,
			MaxImplMethods:  20,
			MaxTraitMethods: 10,
		},
		PatternMatching: PatternMatchingConfig{Common: on, MaxDepth: 2, MaxAlternatives: 3},
		Ownership: OwnershipConfig{
			Common:       onExempt,
			MaxLifetimes: 3,
			ReadOnlyMethods: []string{
				"len", "is_empty", "iter", "contains", "get", "first", "last",
				"as_str", "as_slice", "starts_with", "ends_with", "chars", "bytes",
			},
		},
		DuplicateCode: DuplicateCodeConfig{
			Common:              on,
			MinTokens:           30,
			SimilarityThreshold: 0.85,
		},
		UnusedSuppression: UnusedSuppressionConfig{Common: on},
	}
}

// CommonFor returns the shared settings of rule id.
func (c Config) CommonFor(id m.RuleID) (Common, bool) {
	switch id {
	case MagicNumberID:
		return c.MagicNumber.Common, true
	case CommentedCodeID:
		return c.CommentedCode.Common, true
	case TodoCommentID:
		return c.TodoComment.Common, true
	case MissingDocsID:
		return c.MissingDocs.Common, true
	case NamingID:
		return c.Naming.Common, true
	case UnsafeUsageID:
		return c.UnsafeUsage.Common, true
	case ErrorHandlingID:
		return c.ErrorHandling.Common, true
	case ComplexityID:
		return c.Complexity.Common, true
	case StructureID:
		return c.Structure.Common, true
	case PatternMatchingID:
		return c.PatternMatching.Common, true
	case OwnershipID:
		return c.Ownership.Common, true
	case DuplicateCodeID:
		return c.DuplicateCode.Common, true
	case UnusedSuppressionID:
		return c.UnusedSuppression.Common, true
	}

	return Common{}, false
}

// Validate checks the rule settings that do not depend on other sections.
func (c Config) Validate() error {
	for _, id := range DefaultOrder() {
		common, _ := c.CommonFor(id)
		if _, err := common.ResolveSeverity(m.SeverityInfo); err != nil {
			return fmt.Errorf("%s.severity: %w", id, err)
		}
	}

	checks := []struct {
		key   string
		value int
	}{
		{"commented_code.min_lines", c.CommentedCode.MinLines},
		{"complexity.max_statements", c.Complexity.MaxStatements},
		{"complexity.max_params", c.Complexity.MaxParams},
		{"complexity.max_nesting", c.Complexity.MaxNesting},
		{"complexity.max_complexity", c.Complexity.MaxComplexity},
		{"structure.max_fields", c.Structure.MaxFields},
		{"structure.max_variants", c.Structure.MaxVariants},
		{"structure.max_impl_methods", c.Structure.MaxImplMethods},
		{"structure.max_trait_methods", c.Structure.MaxTraitMethods},
		{"pattern_matching.max_depth", c.PatternMatching.MaxDepth},
		{"pattern_matching.max_alternatives", c.PatternMatching.MaxAlternatives},
		{"ownership.max_lifetimes", c.Ownership.MaxLifetimes},
		{"duplicate_code.min_tokens", c.DuplicateCode.MinTokens},
	}

	for _, check := range checks {
		if check.value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", check.key, check.value)
		}
	}

	if t := c.DuplicateCode.SimilarityThreshold; math.IsNaN(t) || t <= 0 || t > 1 {
		return fmt.Errorf("duplicate_code.similarity_threshold must be in (0, 1], got %g", t)
	}

	for kind, style := range c.Naming.Styles {
		if !isDeclKind(kind) {
			return fmt.Errorf("naming.styles: unknown declaration kind %q", kind)
		}

		if !isStyle(style) {
			return fmt.Errorf("naming.styles.%s: unknown style %q", kind, style)
		}
	}

	return nil
}

// DeclKinds lists the declaration kinds of the naming policy.
func DeclKinds() []string {
	return []string{
		DeclType, DeclVariant, DeclFunction, DeclVariable, DeclParameter,
		DeclModule, DeclField, DeclConstant, DeclStatic, DeclMacro,
	}
}

func isDeclKind(kind string) bool {
	for _, k := range DeclKinds() {
		if k == kind {
			return true
		}
	}

	return false
}

func isStyle(style string) bool {
	switch style {
	case StylePascal, StyleSnake, StyleScreamingSnake, StyleCamel:
		return true
	}

	return false
}
