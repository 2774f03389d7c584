package diag

// Code identifiers, grouped by prefix: T-codes are template/tooling
// errors, S-codes are validation errors. These strings are external
// contract (editors and CI configurations key off them), so they are
// never renumbered.
const (
	TemplateParseError = "T100"
	IOError            = "T900"
	ConfigError        = "T901"

	UnclosedTag             = "S100"
	UnbalancedStructure     = "S101"
	OrphanedIntermediate    = "S102"
	UnmatchedEndblockName   = "S103"
	UnknownTag              = "S104"
	UnloadedTag             = "S105"
	AmbiguousUnloadedTag    = "S106"
	UnknownFilter           = "S107"
	UnloadedFilter          = "S108"
	AmbiguousUnloadedFilter = "S109"
	ExpressionSyntaxError   = "S110"
	FilterMissingArgument   = "S111"
	FilterUnexpectedArg     = "S112"
	ExtractedRuleViolation  = "S113"
	ExtendsMustBeFirst      = "S114"
	MultipleExtends         = "S115"
)

// CodeInfo is the registry entry behind a code: a stable name, a short
// description of what fired, optionally why it matters and how to fix
// it, an optional example, and whether the diagnostic can only fire
// when a Python inspector is attached to the workspace.
type CodeInfo struct {
	Code              string
	Name              string
	What              string
	Why               string
	Fix               string
	Example           string
	DefaultSeverity   Severity
	RequiresInspector bool
}

var registry = map[string]CodeInfo{
	TemplateParseError: {
		Code: TemplateParseError, Name: "template-parse-error",
		What:            "The template could not be tokenized at this point.",
		DefaultSeverity: Error,
	},
	IOError: {
		Code: IOError, Name: "io-error",
		What:            "A file the check was asked to read could not be read.",
		DefaultSeverity: Error,
	},
	ConfigError: {
		Code: ConfigError, Name: "config-error",
		What:            "The project configuration file could not be parsed.",
		DefaultSeverity: Error,
	},
	UnclosedTag: {
		Code: UnclosedTag, Name: "unclosed-tag",
		What:            "A block tag was opened but its closing tag never appears.",
		Why:             "Django raises TemplateSyntaxError at render time for an unclosed block.",
		Fix:             "Add the matching end tag.",
		Example:         "{% for x in xs %} ... missing {% endfor %}",
		DefaultSeverity: Error,
	},
	UnbalancedStructure: {
		Code: UnbalancedStructure, Name: "unbalanced-structure",
		What:            "A closing tag appears with no matching open block.",
		Fix:             "Remove the stray closer or open the block it closes.",
		DefaultSeverity: Error,
	},
	OrphanedIntermediate: {
		Code: OrphanedIntermediate, Name: "orphaned-intermediate",
		What:            "An intermediate tag (else, elif, empty, ...) appears outside the block that accepts it.",
		Example:         "{% else %} with no enclosing {% if %}",
		DefaultSeverity: Error,
	},
	UnmatchedEndblockName: {
		Code: UnmatchedEndblockName, Name: "unmatched-endblock-name",
		What:            "The name on an {% endblock %} does not match its opening {% block %}.",
		Fix:             "Rename the endblock argument or drop it.",
		DefaultSeverity: Error,
	},
	UnknownTag: {
		Code: UnknownTag, Name: "unknown-tag",
		What:              "No loaded or built-in library provides a tag with this name.",
		RequiresInspector: true,
		DefaultSeverity:   Error,
	},
	UnloadedTag: {
		Code: UnloadedTag, Name: "unloaded-tag",
		What:              "A library provides this tag, but the template never loads it.",
		Fix:               "Add the matching {% load %} before this point.",
		RequiresInspector: true,
		DefaultSeverity:   Error,
	},
	AmbiguousUnloadedTag: {
		Code: AmbiguousUnloadedTag, Name: "ambiguous-unloaded-tag",
		What:              "More than one unloaded library provides a tag with this name.",
		RequiresInspector: true,
		DefaultSeverity:   Warning,
	},
	UnknownFilter: {
		Code: UnknownFilter, Name: "unknown-filter",
		What:              "No loaded or built-in library provides a filter with this name.",
		RequiresInspector: true,
		DefaultSeverity:   Error,
	},
	UnloadedFilter: {
		Code: UnloadedFilter, Name: "unloaded-filter",
		What:              "A library provides this filter, but the template never loads it.",
		Fix:               "Add the matching {% load %} before this point.",
		RequiresInspector: true,
		DefaultSeverity:   Error,
	},
	AmbiguousUnloadedFilter: {
		Code: AmbiguousUnloadedFilter, Name: "ambiguous-unloaded-filter",
		What:              "More than one unloaded library provides a filter with this name.",
		RequiresInspector: true,
		DefaultSeverity:   Warning,
	},
	ExpressionSyntaxError: {
		Code: ExpressionSyntaxError, Name: "if-expression-syntax",
		What:            "The expression inside an {% if %} or {% elif %} is malformed.",
		Example:         "{% if x and %}",
		DefaultSeverity: Error,
	},
	FilterMissingArgument: {
		Code: FilterMissingArgument, Name: "filter-missing-argument",
		What:            "This filter requires an argument but none was given.",
		Example:         "{{ value|default }}",
		DefaultSeverity: Error,
	},
	FilterUnexpectedArg: {
		Code: FilterUnexpectedArg, Name: "filter-unexpected-argument",
		What:            "This filter takes no argument but one was given.",
		Example:         "{{ value|upper:\"x\" }}",
		DefaultSeverity: Error,
	},
	ExtractedRuleViolation: {
		Code: ExtractedRuleViolation, Name: "tag-rule-violation",
		What:            "The tag's arguments violate a constraint recovered from its compile function.",
		Why:             "The library's own compile function would raise TemplateSyntaxError at render time.",
		DefaultSeverity: Error,
	},
	ExtendsMustBeFirst: {
		Code: ExtendsMustBeFirst, Name: "extends-must-be-first",
		What:            "{% extends %} must be the first tag in the template.",
		Why:             "Django ignores everything before extends except text and comments, then errors.",
		DefaultSeverity: Error,
	},
	MultipleExtends: {
		Code: MultipleExtends, Name: "multiple-extends",
		What:            "A template may contain at most one {% extends %}.",
		DefaultSeverity: Error,
	},
}

// Lookup returns the registry entry for code.
func Lookup(code string) (CodeInfo, bool) {
	info, ok := registry[code]
	return info, ok
}

// DefaultSeverity returns the code's default severity, or Error for a
// code the registry does not know (forward compatibility with configs
// naming codes from a newer version).
func DefaultSeverity(code string) Severity {
	if info, ok := registry[code]; ok {
		return info.DefaultSeverity
	}
	return Error
}

// AllCodes returns every registered code, in no particular order. The
// CLI's `--select`/`--ignore` flags do not check codes against it.
func AllCodes() []CodeInfo {
	out := make([]CodeInfo, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	return out
}
