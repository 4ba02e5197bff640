package kinds

import "github.com/spicery/astdoc/pkg/common"

// Kind codes produced by the parser. Codes are grouped by arity the way the
// Zend engine groups them: special kinds from 64, lists from 128, then
// fixed-arity kinds in blocks of 256.
const (
	// Declarations
	FuncDecl common.Kind = 67
	Closure  common.Kind = 68
	Method   common.Kind = 69
	Class    common.Kind = 70

	// Lists
	ArgList         common.Kind = 128
	Array           common.Kind = 129
	EncapsList      common.Kind = 130
	ExprList        common.Kind = 131
	StmtList        common.Kind = 132
	If              common.Kind = 133
	SwitchList      common.Kind = 134
	CatchList       common.Kind = 135
	ParamList       common.Kind = 136
	ClosureUses     common.Kind = 137
	PropDecl        common.Kind = 138
	ConstDecl       common.Kind = 139
	ClassConstDecl  common.Kind = 140
	NameList        common.Kind = 141
	TraitAdaptation common.Kind = 142
	Use             common.Kind = 143

	// One child
	Var           common.Kind = 256
	Const         common.Kind = 257
	Unpack        common.Kind = 258
	Cast          common.Kind = 261
	Empty         common.Kind = 262
	Isset         common.Kind = 263
	ShellExec     common.Kind = 265
	Clone         common.Kind = 266
	Exit          common.Kind = 267
	Print         common.Kind = 268
	IncludeOrEval common.Kind = 269
	UnaryOp       common.Kind = 270
	PreInc        common.Kind = 271
	PreDec        common.Kind = 272
	PostInc       common.Kind = 273
	PostDec       common.Kind = 274
	Global        common.Kind = 277
	Unset         common.Kind = 278
	Return        common.Kind = 279
	Ref           common.Kind = 281
	Echo          common.Kind = 283
	Throw         common.Kind = 284
	Break         common.Kind = 286
	Continue      common.Kind = 287

	// Two children
	Dim           common.Kind = 512
	Prop          common.Kind = 513
	StaticProp    common.Kind = 515
	Call          common.Kind = 516
	ClassConst    common.Kind = 517
	Assign        common.Kind = 518
	AssignRef     common.Kind = 519
	AssignOp      common.Kind = 520
	BinaryOp      common.Kind = 521
	ArrayElem     common.Kind = 526
	New           common.Kind = 527
	Instanceof    common.Kind = 528
	While         common.Kind = 533
	DoWhile       common.Kind = 534
	IfElem        common.Kind = 535
	Switch        common.Kind = 536
	SwitchCase    common.Kind = 537
	PropElem      common.Kind = 540
	ConstElem     common.Kind = 541
	UseElem       common.Kind = 542
	ClassName     common.Kind = 543
	MethodCall    common.Kind = 768
	StaticCall    common.Kind = 770
	Conditional   common.Kind = 771
	Try           common.Kind = 772
	Catch         common.Kind = 773
	Param         common.Kind = 774
	PropGroup     common.Kind = 776
	ClassConstGrp common.Kind = 777
	For           common.Kind = 1024
	Foreach       common.Kind = 1025

	// Kinds php-ast adds on top of the engine
	Name         common.Kind = 2048
	ClosureVar   common.Kind = 2049
	NullableType common.Kind = 2050
	Type         common.Kind = 2051
)

// names110 is the symbolic name of every code in format version 110.
var names110 = map[common.Kind]string{
	FuncDecl: "AST_FUNC_DECL",
	Closure:  "AST_CLOSURE",
	Method:   "AST_METHOD",
	Class:    "AST_CLASS",

	ArgList:         "AST_ARG_LIST",
	Array:           "AST_ARRAY",
	EncapsList:      "AST_ENCAPS_LIST",
	ExprList:        "AST_EXPR_LIST",
	StmtList:        "AST_STMT_LIST",
	If:              "AST_IF",
	SwitchList:      "AST_SWITCH_LIST",
	CatchList:       "AST_CATCH_LIST",
	ParamList:       "AST_PARAM_LIST",
	ClosureUses:     "AST_CLOSURE_USES",
	PropDecl:        "AST_PROP_DECL",
	ConstDecl:       "AST_CONST_DECL",
	ClassConstDecl:  "AST_CLASS_CONST_DECL",
	NameList:        "AST_NAME_LIST",
	TraitAdaptation: "AST_TRAIT_ADAPTATIONS",
	Use:             "AST_USE",

	Var:           "AST_VAR",
	Const:         "AST_CONST",
	Unpack:        "AST_UNPACK",
	Cast:          "AST_CAST",
	Empty:         "AST_EMPTY",
	Isset:         "AST_ISSET",
	ShellExec:     "AST_SHELL_EXEC",
	Clone:         "AST_CLONE",
	Exit:          "AST_EXIT",
	Print:         "AST_PRINT",
	IncludeOrEval: "AST_INCLUDE_OR_EVAL",
	UnaryOp:       "AST_UNARY_OP",
	PreInc:        "AST_PRE_INC",
	PreDec:        "AST_PRE_DEC",
	PostInc:       "AST_POST_INC",
	PostDec:       "AST_POST_DEC",
	Global:        "AST_GLOBAL",
	Unset:         "AST_UNSET",
	Return:        "AST_RETURN",
	Ref:           "AST_REF",
	Echo:          "AST_ECHO",
	Throw:         "AST_THROW",
	Break:         "AST_BREAK",
	Continue:      "AST_CONTINUE",

	Dim:           "AST_DIM",
	Prop:          "AST_PROP",
	StaticProp:    "AST_STATIC_PROP",
	Call:          "AST_CALL",
	ClassConst:    "AST_CLASS_CONST",
	Assign:        "AST_ASSIGN",
	AssignRef:     "AST_ASSIGN_REF",
	AssignOp:      "AST_ASSIGN_OP",
	BinaryOp:      "AST_BINARY_OP",
	ArrayElem:     "AST_ARRAY_ELEM",
	New:           "AST_NEW",
	Instanceof:    "AST_INSTANCEOF",
	While:         "AST_WHILE",
	DoWhile:       "AST_DO_WHILE",
	IfElem:        "AST_IF_ELEM",
	Switch:        "AST_SWITCH",
	SwitchCase:    "AST_SWITCH_CASE",
	PropElem:      "AST_PROP_ELEM",
	ConstElem:     "AST_CONST_ELEM",
	UseElem:       "AST_USE_ELEM",
	ClassName:     "AST_CLASS_NAME",
	MethodCall:    "AST_METHOD_CALL",
	StaticCall:    "AST_STATIC_CALL",
	Conditional:   "AST_CONDITIONAL",
	Try:           "AST_TRY",
	Catch:         "AST_CATCH",
	Param:         "AST_PARAM",
	PropGroup:     "AST_PROP_GROUP",
	ClassConstGrp: "AST_CLASS_CONST_GROUP",
	For:           "AST_FOR",
	Foreach:       "AST_FOREACH",

	Name:         "AST_NAME",
	ClosureVar:   "AST_CLOSURE_VAR",
	NullableType: "AST_NULLABLE_TYPE",
	Type:         "AST_TYPE",
}
