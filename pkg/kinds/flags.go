package kinds

// Flag values carried in a node's flags field. Their meaning depends on the
// node kind.
const (
	// AST_NAME
	NameFQ       = 0
	NameNotFQ    = 1
	NameRelative = 2

	// AST_ARRAY
	ArraySyntaxList  = 1
	ArraySyntaxLong  = 2
	ArraySyntaxShort = 3

	// AST_ARRAY_ELEM
	ArrayElemRef = 1

	// AST_PARAM
	ParamRef      = 8
	ParamVariadic = 16

	// AST_FUNC_DECL and AST_METHOD
	FuncReturnsRef = 4096

	// Class members, methods and classes
	ModifierPublic    = 1
	ModifierProtected = 2
	ModifierPrivate   = 4
	ModifierStatic    = 16
	ModifierFinal     = 32
	ModifierAbstract  = 64
	ModifierReadonly  = 128

	// AST_CLASS
	ClassInterface = 1
	ClassTrait     = 2
	ClassFinal     = 32
	ClassAbstract  = 64

	// AST_INCLUDE_OR_EVAL
	ExecEval        = 1
	ExecInclude     = 2
	ExecIncludeOnce = 4
	ExecRequire     = 8
	ExecRequireOnce = 16

	// AST_TYPE and AST_CAST
	TypeNull     = 1
	TypeFalse    = 2
	TypeTrue     = 3
	TypeLong     = 4
	TypeDouble   = 5
	TypeString   = 6
	TypeArray    = 7
	TypeObject   = 8
	TypeCallable = 12
	TypeIterable = 13
	TypeVoid     = 14
	TypeStatic   = 15
	TypeMixed    = 16
	TypeNever    = 17
	TypeBool     = 18

	// AST_UNARY_OP
	UnaryBitwiseNot = 13
	UnaryBoolNot    = 14
	UnarySilence    = 260
	UnaryPlus       = 261
	UnaryMinus      = 262

	// AST_BINARY_OP and AST_ASSIGN_OP
	BinaryAdd            = 1
	BinarySub            = 2
	BinaryMul            = 3
	BinaryDiv            = 4
	BinaryMod            = 5
	BinaryShiftLeft      = 6
	BinaryShiftRight     = 7
	BinaryConcat         = 8
	BinaryBitwiseOr      = 9
	BinaryBitwiseAnd     = 10
	BinaryBitwiseXor     = 11
	BinaryPow            = 12
	BinaryBoolXor        = 15
	BinaryIsIdentical    = 16
	BinaryIsNotIdentical = 17
	BinaryIsEqual        = 18
	BinaryIsNotEqual     = 19
	BinaryIsSmaller      = 20
	BinaryIsSmallerOrEq  = 21
	BinarySpaceship      = 170
	BinaryIsGreater      = 256
	BinaryIsGreaterOrEq  = 257
	BinaryBoolOr         = 258
	BinaryBoolAnd        = 259
	BinaryCoalesce       = 260
)
