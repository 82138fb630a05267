package dalvik

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a Dalvik instruction. Values are the encoded opcode
// bytes of the DEX 035 instruction set. Unused slots (0x3e-0x43, 0x73,
// 0x79-0x7a, 0xe3-0xff) are not part of the vocabulary.
type Opcode byte

// Moves
const (
	OpNop              Opcode = 0x00
	OpMove             Opcode = 0x01
	OpMoveFrom16       Opcode = 0x02
	OpMove16           Opcode = 0x03
	OpMoveWide         Opcode = 0x04
	OpMoveWideFrom16   Opcode = 0x05
	OpMoveWide16       Opcode = 0x06
	OpMoveObject       Opcode = 0x07
	OpMoveObjectFrom16 Opcode = 0x08
	OpMoveObject16     Opcode = 0x09
)

// Results and returns
const (
	OpMoveResult       Opcode = 0x0a
	OpMoveResultWide   Opcode = 0x0b
	OpMoveResultObject Opcode = 0x0c
	OpMoveException    Opcode = 0x0d
	OpReturnVoid       Opcode = 0x0e
	OpReturn           Opcode = 0x0f
	OpReturnWide       Opcode = 0x10
	OpReturnObject     Opcode = 0x11
)

// Constants
const (
	OpConst4           Opcode = 0x12
	OpConst16          Opcode = 0x13
	OpConst            Opcode = 0x14
	OpConstHigh16      Opcode = 0x15
	OpConstWide16      Opcode = 0x16
	OpConstWide32      Opcode = 0x17
	OpConstWide        Opcode = 0x18
	OpConstWideHigh16  Opcode = 0x19
	OpConstString      Opcode = 0x1a
	OpConstStringJumbo Opcode = 0x1b
	OpConstClass       Opcode = 0x1c
)

// Monitors, casts and allocation
const (
	OpMonitorEnter        Opcode = 0x1d
	OpMonitorExit         Opcode = 0x1e
	OpCheckCast           Opcode = 0x1f
	OpInstanceOf          Opcode = 0x20
	OpArrayLength         Opcode = 0x21
	OpNewInstance         Opcode = 0x22
	OpNewArray            Opcode = 0x23
	OpFilledNewArray      Opcode = 0x24
	OpFilledNewArrayRange Opcode = 0x25
)

// Control flow
const (
	OpFillArrayData Opcode = 0x26
	OpThrow         Opcode = 0x27
	OpGoto          Opcode = 0x28
	OpGoto16        Opcode = 0x29
	OpGoto32        Opcode = 0x2a
	OpPackedSwitch  Opcode = 0x2b
	OpSparseSwitch  Opcode = 0x2c
)

// Comparison and conditional branches
const (
	OpCmplFloat  Opcode = 0x2d
	OpCmpgFloat  Opcode = 0x2e
	OpCmplDouble Opcode = 0x2f
	OpCmpgDouble Opcode = 0x30
	OpCmpLong    Opcode = 0x31
	OpIfEq       Opcode = 0x32
	OpIfNe       Opcode = 0x33
	OpIfLt       Opcode = 0x34
	OpIfGe       Opcode = 0x35
	OpIfGt       Opcode = 0x36
	OpIfLe       Opcode = 0x37
	OpIfEqz      Opcode = 0x38
	OpIfNez      Opcode = 0x39
	OpIfLtz      Opcode = 0x3a
	OpIfGez      Opcode = 0x3b
	OpIfGtz      Opcode = 0x3c
	OpIfLez      Opcode = 0x3d
)

// Array access
const (
	OpAget        Opcode = 0x44
	OpAgetWide    Opcode = 0x45
	OpAgetObject  Opcode = 0x46
	OpAgetBoolean Opcode = 0x47
	OpAgetByte    Opcode = 0x48
	OpAgetChar    Opcode = 0x49
	OpAgetShort   Opcode = 0x4a
	OpAput        Opcode = 0x4b
	OpAputWide    Opcode = 0x4c
	OpAputObject  Opcode = 0x4d
	OpAputBoolean Opcode = 0x4e
	OpAputByte    Opcode = 0x4f
	OpAputChar    Opcode = 0x50
	OpAputShort   Opcode = 0x51
)

// Instance and static field access
const (
	OpIget        Opcode = 0x52
	OpIgetWide    Opcode = 0x53
	OpIgetObject  Opcode = 0x54
	OpIgetBoolean Opcode = 0x55
	OpIgetByte    Opcode = 0x56
	OpIgetChar    Opcode = 0x57
	OpIgetShort   Opcode = 0x58
	OpIput        Opcode = 0x59
	OpIputWide    Opcode = 0x5a
	OpIputObject  Opcode = 0x5b
	OpIputBoolean Opcode = 0x5c
	OpIputByte    Opcode = 0x5d
	OpIputChar    Opcode = 0x5e
	OpIputShort   Opcode = 0x5f
	OpSget        Opcode = 0x60
	OpSgetWide    Opcode = 0x61
	OpSgetObject  Opcode = 0x62
	OpSgetBoolean Opcode = 0x63
	OpSgetByte    Opcode = 0x64
	OpSgetChar    Opcode = 0x65
	OpSgetShort   Opcode = 0x66
	OpSput        Opcode = 0x67
	OpSputWide    Opcode = 0x68
	OpSputObject  Opcode = 0x69
	OpSputBoolean Opcode = 0x6a
	OpSputByte    Opcode = 0x6b
	OpSputChar    Opcode = 0x6c
	OpSputShort   Opcode = 0x6d
)

// Invokes
const (
	OpInvokeVirtual        Opcode = 0x6e
	OpInvokeSuper          Opcode = 0x6f
	OpInvokeDirect         Opcode = 0x70
	OpInvokeStatic         Opcode = 0x71
	OpInvokeInterface      Opcode = 0x72
	OpInvokeVirtualRange   Opcode = 0x74
	OpInvokeSuperRange     Opcode = 0x75
	OpInvokeDirectRange    Opcode = 0x76
	OpInvokeStaticRange    Opcode = 0x77
	OpInvokeInterfaceRange Opcode = 0x78
)

// Unary operations
const (
	OpNegInt        Opcode = 0x7b
	OpNotInt        Opcode = 0x7c
	OpNegLong       Opcode = 0x7d
	OpNotLong       Opcode = 0x7e
	OpNegFloat      Opcode = 0x7f
	OpNegDouble     Opcode = 0x80
	OpIntToLong     Opcode = 0x81
	OpIntToFloat    Opcode = 0x82
	OpIntToDouble   Opcode = 0x83
	OpLongToInt     Opcode = 0x84
	OpLongToFloat   Opcode = 0x85
	OpLongToDouble  Opcode = 0x86
	OpFloatToInt    Opcode = 0x87
	OpFloatToLong   Opcode = 0x88
	OpFloatToDouble Opcode = 0x89
	OpDoubleToInt   Opcode = 0x8a
	OpDoubleToLong  Opcode = 0x8b
	OpDoubleToFloat Opcode = 0x8c
	OpIntToByte     Opcode = 0x8d
	OpIntToChar     Opcode = 0x8e
	OpIntToShort    Opcode = 0x8f
)

// Binary operations
const (
	OpAddInt    Opcode = 0x90
	OpSubInt    Opcode = 0x91
	OpMulInt    Opcode = 0x92
	OpDivInt    Opcode = 0x93
	OpRemInt    Opcode = 0x94
	OpAndInt    Opcode = 0x95
	OpOrInt     Opcode = 0x96
	OpXorInt    Opcode = 0x97
	OpShlInt    Opcode = 0x98
	OpShrInt    Opcode = 0x99
	OpUshrInt   Opcode = 0x9a
	OpAddLong   Opcode = 0x9b
	OpSubLong   Opcode = 0x9c
	OpMulLong   Opcode = 0x9d
	OpDivLong   Opcode = 0x9e
	OpRemLong   Opcode = 0x9f
	OpAndLong   Opcode = 0xa0
	OpOrLong    Opcode = 0xa1
	OpXorLong   Opcode = 0xa2
	OpShlLong   Opcode = 0xa3
	OpShrLong   Opcode = 0xa4
	OpUshrLong  Opcode = 0xa5
	OpAddFloat  Opcode = 0xa6
	OpSubFloat  Opcode = 0xa7
	OpMulFloat  Opcode = 0xa8
	OpDivFloat  Opcode = 0xa9
	OpRemFloat  Opcode = 0xaa
	OpAddDouble Opcode = 0xab
	OpSubDouble Opcode = 0xac
	OpMulDouble Opcode = 0xad
	OpDivDouble Opcode = 0xae
	OpRemDouble Opcode = 0xaf
)

// Binary operations, two-address
const (
	OpAddInt2addr    Opcode = 0xb0
	OpSubInt2addr    Opcode = 0xb1
	OpMulInt2addr    Opcode = 0xb2
	OpDivInt2addr    Opcode = 0xb3
	OpRemInt2addr    Opcode = 0xb4
	OpAndInt2addr    Opcode = 0xb5
	OpOrInt2addr     Opcode = 0xb6
	OpXorInt2addr    Opcode = 0xb7
	OpShlInt2addr    Opcode = 0xb8
	OpShrInt2addr    Opcode = 0xb9
	OpUshrInt2addr   Opcode = 0xba
	OpAddLong2addr   Opcode = 0xbb
	OpSubLong2addr   Opcode = 0xbc
	OpMulLong2addr   Opcode = 0xbd
	OpDivLong2addr   Opcode = 0xbe
	OpRemLong2addr   Opcode = 0xbf
	OpAndLong2addr   Opcode = 0xc0
	OpOrLong2addr    Opcode = 0xc1
	OpXorLong2addr   Opcode = 0xc2
	OpShlLong2addr   Opcode = 0xc3
	OpShrLong2addr   Opcode = 0xc4
	OpUshrLong2addr  Opcode = 0xc5
	OpAddFloat2addr  Opcode = 0xc6
	OpSubFloat2addr  Opcode = 0xc7
	OpMulFloat2addr  Opcode = 0xc8
	OpDivFloat2addr  Opcode = 0xc9
	OpRemFloat2addr  Opcode = 0xca
	OpAddDouble2addr Opcode = 0xcb
	OpSubDouble2addr Opcode = 0xcc
	OpMulDouble2addr Opcode = 0xcd
	OpDivDouble2addr Opcode = 0xce
	OpRemDouble2addr Opcode = 0xcf
)

// Binary operations with literal
const (
	OpAddIntLit16 Opcode = 0xd0
	OpRsubInt     Opcode = 0xd1
	OpMulIntLit16 Opcode = 0xd2
	OpDivIntLit16 Opcode = 0xd3
	OpRemIntLit16 Opcode = 0xd4
	OpAndIntLit16 Opcode = 0xd5
	OpOrIntLit16  Opcode = 0xd6
	OpXorIntLit16 Opcode = 0xd7
	OpAddIntLit8  Opcode = 0xd8
	OpRsubIntLit8 Opcode = 0xd9
	OpMulIntLit8  Opcode = 0xda
	OpDivIntLit8  Opcode = 0xdb
	OpRemIntLit8  Opcode = 0xdc
	OpAndIntLit8  Opcode = 0xdd
	OpOrIntLit8   Opcode = 0xde
	OpXorIntLit8  Opcode = 0xdf
	OpShlIntLit8  Opcode = 0xe0
	OpShrIntLit8  Opcode = 0xe1
	OpUshrIntLit8 Opcode = 0xe2
)


// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpFlags describes behavioural properties of an opcode.
type OpFlags uint16

const (
	FlagCanThrow   OpFlags = 1 << iota // may raise an exception
	FlagBranch                         // carries a branch target
	FlagReturn                         // leaves the method
	FlagInvoke                         // calls a method
	FlagSetsResult                     // result is picked up by a following move-result
	FlagMoveResult                     // reads the result of the preceding invoke
	FlagPayload                        // target is a data payload, not code
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name   string  // smali mnemonic
	Format Format  // encoding format
	Ref    RefKind // kind of symbol reference, RefNone if none
	Flags  OpFlags
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpNop:                  {"nop", Format10x, RefNone, 0},
	OpMove:                 {"move", Format12x, RefNone, 0},
	OpMoveFrom16:           {"move/from16", Format22x, RefNone, 0},
	OpMove16:               {"move/16", Format32x, RefNone, 0},
	OpMoveWide:             {"move-wide", Format12x, RefNone, 0},
	OpMoveWideFrom16:       {"move-wide/from16", Format22x, RefNone, 0},
	OpMoveWide16:           {"move-wide/16", Format32x, RefNone, 0},
	OpMoveObject:           {"move-object", Format12x, RefNone, 0},
	OpMoveObjectFrom16:     {"move-object/from16", Format22x, RefNone, 0},
	OpMoveObject16:         {"move-object/16", Format32x, RefNone, 0},
	OpMoveResult:           {"move-result", Format11x, RefNone, FlagMoveResult},
	OpMoveResultWide:       {"move-result-wide", Format11x, RefNone, FlagMoveResult},
	OpMoveResultObject:     {"move-result-object", Format11x, RefNone, FlagMoveResult},
	OpMoveException:        {"move-exception", Format11x, RefNone, 0},
	OpReturnVoid:           {"return-void", Format10x, RefNone, FlagReturn},
	OpReturn:               {"return", Format11x, RefNone, FlagReturn},
	OpReturnWide:           {"return-wide", Format11x, RefNone, FlagReturn},
	OpReturnObject:         {"return-object", Format11x, RefNone, FlagReturn},
	OpConst4:               {"const/4", Format11n, RefNone, 0},
	OpConst16:              {"const/16", Format21s, RefNone, 0},
	OpConst:                {"const", Format31i, RefNone, 0},
	OpConstHigh16:          {"const/high16", Format21h, RefNone, 0},
	OpConstWide16:          {"const-wide/16", Format21s, RefNone, 0},
	OpConstWide32:          {"const-wide/32", Format31i, RefNone, 0},
	OpConstWide:            {"const-wide", Format51l, RefNone, 0},
	OpConstWideHigh16:      {"const-wide/high16", Format21h, RefNone, 0},
	OpConstString:          {"const-string", Format21c, RefString, FlagCanThrow},
	OpConstStringJumbo:     {"const-string/jumbo", Format31c, RefString, FlagCanThrow},
	OpConstClass:           {"const-class", Format21c, RefType, FlagCanThrow},
	OpMonitorEnter:         {"monitor-enter", Format11x, RefNone, FlagCanThrow},
	OpMonitorExit:          {"monitor-exit", Format11x, RefNone, FlagCanThrow},
	OpCheckCast:            {"check-cast", Format21c, RefType, FlagCanThrow},
	OpInstanceOf:           {"instance-of", Format22c, RefType, FlagCanThrow},
	OpArrayLength:          {"array-length", Format12x, RefNone, FlagCanThrow},
	OpNewInstance:          {"new-instance", Format21c, RefType, FlagCanThrow},
	OpNewArray:             {"new-array", Format22c, RefType, FlagCanThrow},
	OpFilledNewArray:       {"filled-new-array", Format35c, RefType, FlagCanThrow | FlagSetsResult},
	OpFilledNewArrayRange:  {"filled-new-array/range", Format3rc, RefType, FlagCanThrow | FlagSetsResult},
	OpFillArrayData:        {"fill-array-data", Format31t, RefNone, FlagCanThrow | FlagPayload},
	OpThrow:                {"throw", Format11x, RefNone, FlagCanThrow},
	OpGoto:                 {"goto", Format10t, RefNone, FlagBranch},
	OpGoto16:               {"goto/16", Format20t, RefNone, FlagBranch},
	OpGoto32:               {"goto/32", Format30t, RefNone, FlagBranch},
	OpPackedSwitch:         {"packed-switch", Format31t, RefNone, FlagPayload},
	OpSparseSwitch:         {"sparse-switch", Format31t, RefNone, FlagPayload},
	OpCmplFloat:            {"cmpl-float", Format23x, RefNone, 0},
	OpCmpgFloat:            {"cmpg-float", Format23x, RefNone, 0},
	OpCmplDouble:           {"cmpl-double", Format23x, RefNone, 0},
	OpCmpgDouble:           {"cmpg-double", Format23x, RefNone, 0},
	OpCmpLong:              {"cmp-long", Format23x, RefNone, 0},
	OpIfEq:                 {"if-eq", Format22t, RefNone, FlagBranch},
	OpIfNe:                 {"if-ne", Format22t, RefNone, FlagBranch},
	OpIfLt:                 {"if-lt", Format22t, RefNone, FlagBranch},
	OpIfGe:                 {"if-ge", Format22t, RefNone, FlagBranch},
	OpIfGt:                 {"if-gt", Format22t, RefNone, FlagBranch},
	OpIfLe:                 {"if-le", Format22t, RefNone, FlagBranch},
	OpIfEqz:                {"if-eqz", Format21t, RefNone, FlagBranch},
	OpIfNez:                {"if-nez", Format21t, RefNone, FlagBranch},
	OpIfLtz:                {"if-ltz", Format21t, RefNone, FlagBranch},
	OpIfGez:                {"if-gez", Format21t, RefNone, FlagBranch},
	OpIfGtz:                {"if-gtz", Format21t, RefNone, FlagBranch},
	OpIfLez:                {"if-lez", Format21t, RefNone, FlagBranch},
	OpAget:                 {"aget", Format23x, RefNone, FlagCanThrow},
	OpAgetWide:             {"aget-wide", Format23x, RefNone, FlagCanThrow},
	OpAgetObject:           {"aget-object", Format23x, RefNone, FlagCanThrow},
	OpAgetBoolean:          {"aget-boolean", Format23x, RefNone, FlagCanThrow},
	OpAgetByte:             {"aget-byte", Format23x, RefNone, FlagCanThrow},
	OpAgetChar:             {"aget-char", Format23x, RefNone, FlagCanThrow},
	OpAgetShort:            {"aget-short", Format23x, RefNone, FlagCanThrow},
	OpAput:                 {"aput", Format23x, RefNone, FlagCanThrow},
	OpAputWide:             {"aput-wide", Format23x, RefNone, FlagCanThrow},
	OpAputObject:           {"aput-object", Format23x, RefNone, FlagCanThrow},
	OpAputBoolean:          {"aput-boolean", Format23x, RefNone, FlagCanThrow},
	OpAputByte:             {"aput-byte", Format23x, RefNone, FlagCanThrow},
	OpAputChar:             {"aput-char", Format23x, RefNone, FlagCanThrow},
	OpAputShort:            {"aput-short", Format23x, RefNone, FlagCanThrow},
	OpIget:                 {"iget", Format22c, RefField, FlagCanThrow},
	OpIgetWide:             {"iget-wide", Format22c, RefField, FlagCanThrow},
	OpIgetObject:           {"iget-object", Format22c, RefField, FlagCanThrow},
	OpIgetBoolean:          {"iget-boolean", Format22c, RefField, FlagCanThrow},
	OpIgetByte:             {"iget-byte", Format22c, RefField, FlagCanThrow},
	OpIgetChar:             {"iget-char", Format22c, RefField, FlagCanThrow},
	OpIgetShort:            {"iget-short", Format22c, RefField, FlagCanThrow},
	OpIput:                 {"iput", Format22c, RefField, FlagCanThrow},
	OpIputWide:             {"iput-wide", Format22c, RefField, FlagCanThrow},
	OpIputObject:           {"iput-object", Format22c, RefField, FlagCanThrow},
	OpIputBoolean:          {"iput-boolean", Format22c, RefField, FlagCanThrow},
	OpIputByte:             {"iput-byte", Format22c, RefField, FlagCanThrow},
	OpIputChar:             {"iput-char", Format22c, RefField, FlagCanThrow},
	OpIputShort:            {"iput-short", Format22c, RefField, FlagCanThrow},
	OpSget:                 {"sget", Format21c, RefField, FlagCanThrow},
	OpSgetWide:             {"sget-wide", Format21c, RefField, FlagCanThrow},
	OpSgetObject:           {"sget-object", Format21c, RefField, FlagCanThrow},
	OpSgetBoolean:          {"sget-boolean", Format21c, RefField, FlagCanThrow},
	OpSgetByte:             {"sget-byte", Format21c, RefField, FlagCanThrow},
	OpSgetChar:             {"sget-char", Format21c, RefField, FlagCanThrow},
	OpSgetShort:            {"sget-short", Format21c, RefField, FlagCanThrow},
	OpSput:                 {"sput", Format21c, RefField, FlagCanThrow},
	OpSputWide:             {"sput-wide", Format21c, RefField, FlagCanThrow},
	OpSputObject:           {"sput-object", Format21c, RefField, FlagCanThrow},
	OpSputBoolean:          {"sput-boolean", Format21c, RefField, FlagCanThrow},
	OpSputByte:             {"sput-byte", Format21c, RefField, FlagCanThrow},
	OpSputChar:             {"sput-char", Format21c, RefField, FlagCanThrow},
	OpSputShort:            {"sput-short", Format21c, RefField, FlagCanThrow},
	OpInvokeVirtual:        {"invoke-virtual", Format35c, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeSuper:          {"invoke-super", Format35c, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeDirect:         {"invoke-direct", Format35c, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeStatic:         {"invoke-static", Format35c, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeInterface:      {"invoke-interface", Format35c, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeVirtualRange:   {"invoke-virtual/range", Format3rc, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeSuperRange:     {"invoke-super/range", Format3rc, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeDirectRange:    {"invoke-direct/range", Format3rc, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeStaticRange:    {"invoke-static/range", Format3rc, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpInvokeInterfaceRange: {"invoke-interface/range", Format3rc, RefMethod, FlagCanThrow | FlagInvoke | FlagSetsResult},
	OpNegInt:               {"neg-int", Format12x, RefNone, 0},
	OpNotInt:               {"not-int", Format12x, RefNone, 0},
	OpNegLong:              {"neg-long", Format12x, RefNone, 0},
	OpNotLong:              {"not-long", Format12x, RefNone, 0},
	OpNegFloat:             {"neg-float", Format12x, RefNone, 0},
	OpNegDouble:            {"neg-double", Format12x, RefNone, 0},
	OpIntToLong:            {"int-to-long", Format12x, RefNone, 0},
	OpIntToFloat:           {"int-to-float", Format12x, RefNone, 0},
	OpIntToDouble:          {"int-to-double", Format12x, RefNone, 0},
	OpLongToInt:            {"long-to-int", Format12x, RefNone, 0},
	OpLongToFloat:          {"long-to-float", Format12x, RefNone, 0},
	OpLongToDouble:         {"long-to-double", Format12x, RefNone, 0},
	OpFloatToInt:           {"float-to-int", Format12x, RefNone, 0},
	OpFloatToLong:          {"float-to-long", Format12x, RefNone, 0},
	OpFloatToDouble:        {"float-to-double", Format12x, RefNone, 0},
	OpDoubleToInt:          {"double-to-int", Format12x, RefNone, 0},
	OpDoubleToLong:         {"double-to-long", Format12x, RefNone, 0},
	OpDoubleToFloat:        {"double-to-float", Format12x, RefNone, 0},
	OpIntToByte:            {"int-to-byte", Format12x, RefNone, 0},
	OpIntToChar:            {"int-to-char", Format12x, RefNone, 0},
	OpIntToShort:           {"int-to-short", Format12x, RefNone, 0},
	OpAddInt:               {"add-int", Format23x, RefNone, 0},
	OpSubInt:               {"sub-int", Format23x, RefNone, 0},
	OpMulInt:               {"mul-int", Format23x, RefNone, 0},
	OpDivInt:               {"div-int", Format23x, RefNone, FlagCanThrow},
	OpRemInt:               {"rem-int", Format23x, RefNone, FlagCanThrow},
	OpAndInt:               {"and-int", Format23x, RefNone, 0},
	OpOrInt:                {"or-int", Format23x, RefNone, 0},
	OpXorInt:               {"xor-int", Format23x, RefNone, 0},
	OpShlInt:               {"shl-int", Format23x, RefNone, 0},
	OpShrInt:               {"shr-int", Format23x, RefNone, 0},
	OpUshrInt:              {"ushr-int", Format23x, RefNone, 0},
	OpAddLong:              {"add-long", Format23x, RefNone, 0},
	OpSubLong:              {"sub-long", Format23x, RefNone, 0},
	OpMulLong:              {"mul-long", Format23x, RefNone, 0},
	OpDivLong:              {"div-long", Format23x, RefNone, FlagCanThrow},
	OpRemLong:              {"rem-long", Format23x, RefNone, FlagCanThrow},
	OpAndLong:              {"and-long", Format23x, RefNone, 0},
	OpOrLong:               {"or-long", Format23x, RefNone, 0},
	OpXorLong:              {"xor-long", Format23x, RefNone, 0},
	OpShlLong:              {"shl-long", Format23x, RefNone, 0},
	OpShrLong:              {"shr-long", Format23x, RefNone, 0},
	OpUshrLong:             {"ushr-long", Format23x, RefNone, 0},
	OpAddFloat:             {"add-float", Format23x, RefNone, 0},
	OpSubFloat:             {"sub-float", Format23x, RefNone, 0},
	OpMulFloat:             {"mul-float", Format23x, RefNone, 0},
	OpDivFloat:             {"div-float", Format23x, RefNone, 0},
	OpRemFloat:             {"rem-float", Format23x, RefNone, 0},
	OpAddDouble:            {"add-double", Format23x, RefNone, 0},
	OpSubDouble:            {"sub-double", Format23x, RefNone, 0},
	OpMulDouble:            {"mul-double", Format23x, RefNone, 0},
	OpDivDouble:            {"div-double", Format23x, RefNone, 0},
	OpRemDouble:            {"rem-double", Format23x, RefNone, 0},
	OpAddInt2addr:          {"add-int/2addr", Format12x, RefNone, 0},
	OpSubInt2addr:          {"sub-int/2addr", Format12x, RefNone, 0},
	OpMulInt2addr:          {"mul-int/2addr", Format12x, RefNone, 0},
	OpDivInt2addr:          {"div-int/2addr", Format12x, RefNone, FlagCanThrow},
	OpRemInt2addr:          {"rem-int/2addr", Format12x, RefNone, FlagCanThrow},
	OpAndInt2addr:          {"and-int/2addr", Format12x, RefNone, 0},
	OpOrInt2addr:           {"or-int/2addr", Format12x, RefNone, 0},
	OpXorInt2addr:          {"xor-int/2addr", Format12x, RefNone, 0},
	OpShlInt2addr:          {"shl-int/2addr", Format12x, RefNone, 0},
	OpShrInt2addr:          {"shr-int/2addr", Format12x, RefNone, 0},
	OpUshrInt2addr:         {"ushr-int/2addr", Format12x, RefNone, 0},
	OpAddLong2addr:         {"add-long/2addr", Format12x, RefNone, 0},
	OpSubLong2addr:         {"sub-long/2addr", Format12x, RefNone, 0},
	OpMulLong2addr:         {"mul-long/2addr", Format12x, RefNone, 0},
	OpDivLong2addr:         {"div-long/2addr", Format12x, RefNone, FlagCanThrow},
	OpRemLong2addr:         {"rem-long/2addr", Format12x, RefNone, FlagCanThrow},
	OpAndLong2addr:         {"and-long/2addr", Format12x, RefNone, 0},
	OpOrLong2addr:          {"or-long/2addr", Format12x, RefNone, 0},
	OpXorLong2addr:         {"xor-long/2addr", Format12x, RefNone, 0},
	OpShlLong2addr:         {"shl-long/2addr", Format12x, RefNone, 0},
	OpShrLong2addr:         {"shr-long/2addr", Format12x, RefNone, 0},
	OpUshrLong2addr:        {"ushr-long/2addr", Format12x, RefNone, 0},
	OpAddFloat2addr:        {"add-float/2addr", Format12x, RefNone, 0},
	OpSubFloat2addr:        {"sub-float/2addr", Format12x, RefNone, 0},
	OpMulFloat2addr:        {"mul-float/2addr", Format12x, RefNone, 0},
	OpDivFloat2addr:        {"div-float/2addr", Format12x, RefNone, 0},
	OpRemFloat2addr:        {"rem-float/2addr", Format12x, RefNone, 0},
	OpAddDouble2addr:       {"add-double/2addr", Format12x, RefNone, 0},
	OpSubDouble2addr:       {"sub-double/2addr", Format12x, RefNone, 0},
	OpMulDouble2addr:       {"mul-double/2addr", Format12x, RefNone, 0},
	OpDivDouble2addr:       {"div-double/2addr", Format12x, RefNone, 0},
	OpRemDouble2addr:       {"rem-double/2addr", Format12x, RefNone, 0},
	OpAddIntLit16:          {"add-int/lit16", Format22s, RefNone, 0},
	OpRsubInt:              {"rsub-int", Format22s, RefNone, 0},
	OpMulIntLit16:          {"mul-int/lit16", Format22s, RefNone, 0},
	OpDivIntLit16:          {"div-int/lit16", Format22s, RefNone, FlagCanThrow},
	OpRemIntLit16:          {"rem-int/lit16", Format22s, RefNone, FlagCanThrow},
	OpAndIntLit16:          {"and-int/lit16", Format22s, RefNone, 0},
	OpOrIntLit16:           {"or-int/lit16", Format22s, RefNone, 0},
	OpXorIntLit16:          {"xor-int/lit16", Format22s, RefNone, 0},
	OpAddIntLit8:           {"add-int/lit8", Format22b, RefNone, 0},
	OpRsubIntLit8:          {"rsub-int/lit8", Format22b, RefNone, 0},
	OpMulIntLit8:           {"mul-int/lit8", Format22b, RefNone, 0},
	OpDivIntLit8:           {"div-int/lit8", Format22b, RefNone, FlagCanThrow},
	OpRemIntLit8:           {"rem-int/lit8", Format22b, RefNone, FlagCanThrow},
	OpAndIntLit8:           {"and-int/lit8", Format22b, RefNone, 0},
	OpOrIntLit8:            {"or-int/lit8", Format22b, RefNone, 0},
	OpXorIntLit8:           {"xor-int/lit8", Format22b, RefNone, 0},
	OpShlIntLit8:           {"shl-int/lit8", Format22b, RefNone, 0},
	OpShrIntLit8:           {"shr-int/lit8", Format22b, RefNone, 0},
	OpUshrIntLit8:          {"ushr-int/lit8", Format22b, RefNone, 0},
}

// opcodesByName is the reverse of opcodeTable, keyed by mnemonic.
var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		m[info.Name] = op
	}
	return m
}()

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown-%02x", byte(op)), Format: FormatInvalid}
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Name returns the smali mnemonic.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// Format returns the encoding format of op.
func (op Opcode) Format() Format {
	return op.Info().Format
}

// Has reports whether op carries all of the given flags.
func (op Opcode) Has(flags OpFlags) bool {
	return op.Info().Flags&flags == flags
}

// IsInvoke reports whether op is one of the invoke-* family.
func (op Opcode) IsInvoke() bool { return op.Has(FlagInvoke) }

// IsBranch reports whether op transfers control to a label in the same method.
func (op Opcode) IsBranch() bool { return op.Has(FlagBranch) }

// IsReturn reports whether op is one of the return* family.
func (op Opcode) IsReturn() bool { return op.Has(FlagReturn) }

// IsMoveResult reports whether op consumes the preceding instruction's result.
func (op Opcode) IsMoveResult() bool { return op.Has(FlagMoveResult) }

// LookupOpcode finds an opcode by its smali mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// AllOpcodes returns every opcode in the instruction set, in encoding order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeTable))
	for i := 0; i < 256; i++ {
		if op := Opcode(i); op.Valid() {
			ops = append(ops, op)
		}
	}
	return ops
}
