package pyast

// Node-kind constants mirror tree-sitter-python's grammar node types.
// Keeping them as named constants here means internal/absint and
// internal/extract never spell out the grammar strings themselves.
const (
	KindModule      = "module"
	KindFunctionDef = "function_definition"
	KindClassDef    = "class_definition"
	KindDecorated   = "decorated_definition"
	KindDecorator   = "decorator"

	KindIf        = "if_statement"
	KindElifClaus = "elif_clause"
	KindElseClaus = "else_clause"
	KindFor       = "for_statement"
	KindWhile     = "while_statement"
	KindTry       = "try_statement"
	KindExcept    = "except_clause"
	KindFinally   = "finally_clause"
	KindWith      = "with_statement"
	KindWithItem  = "with_item"
	KindMatch     = "match_statement"
	KindCase      = "case_clause"

	KindExprStmt  = "expression_statement"
	KindAssign    = "assignment"
	KindAugAssign = "augmented_assignment"
	KindReturn    = "return_statement"
	KindRaise     = "raise_statement"
	KindPass      = "pass_statement"
	KindBreak     = "break_statement"
	KindContinue  = "continue_statement"
	KindGlobal    = "global_statement"
	KindBlock     = "block"

	KindCall          = "call"
	KindAttribute     = "attribute"
	KindSubscript     = "subscript"
	KindIdentifier    = "identifier"
	KindString        = "string"
	KindInteger       = "integer"
	KindFloat         = "float"
	KindTrue          = "true"
	KindFalse         = "false"
	KindNone          = "none"
	KindTuple         = "tuple"
	KindList          = "list"
	KindDict          = "dictionary"
	KindParenExpr     = "parenthesized_expression"
	KindComparison    = "comparison_operator"
	KindBooleanOp     = "boolean_operator"
	KindNotOperator   = "not_operator"
	KindUnaryOp       = "unary_operator"
	KindBinaryOp      = "binary_operator"
	KindSlice         = "slice"
	KindArgList       = "argument_list"
	KindKeywordArg    = "keyword_argument"
	KindParameters    = "parameters"
	KindIdentParam    = "identifier" // bare parameter
	KindDefaultParam  = "default_parameter"
	KindTypedParam    = "typed_parameter"
	KindTypedDefault  = "typed_default_parameter"
	KindListSplat     = "list_splat_pattern"
	KindListSplatParm = "list_splat"
	KindDictSplatParm = "dictionary_splat"
	KindFString       = "string" // f-strings are "string" nodes with an interpolation child
	KindInterpolation = "interpolation"
	KindPatternList   = "pattern_list"
	KindCasePattern   = "case_pattern"
	KindNotInOp       = "not in"
	KindInOp          = "in"
)
