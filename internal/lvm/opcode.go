package lvm

import "fmt"

// Opcode is an instruction code.
type Opcode Word

const (
	// expressions
	OpNumber Opcode = iota
	OpTupleElement
	OpAutoIncrement
	OpOrd
	OpStrlen
	OpNeg
	OpBNot
	OpLNot
	OpToNumber
	OpToString
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpExp
	OpMod
	OpBAnd
	OpBOr
	OpBXor
	OpLAnd
	OpLOr
	OpMax
	OpMin
	OpCat
	OpSubstr
	OpUserDefinedOperator
	OpPackRecord
	OpArgument

	// conditions
	OpTrue
	OpFalse
	OpConjunction
	OpNegation
	OpEmptinessCheck
	OpExistenceCheckOneArg
	OpExistenceCheck
	OpContainCheck
	OpConstraint
	OpEQ
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpMatch
	OpNotMatch
	OpContains
	OpNotContains

	// operations
	OpSearch
	OpScan
	OpChoice
	OpIndexScan
	OpIndexChoice
	OpUnpackRecord
	OpAggregate
	OpIndexAggregate
	OpAggregateCount
	OpAggregateReturn
	OpFilter
	OpProject
	OpReturnValue

	// statements
	OpSequence
	OpParallel
	OpStopParallel
	OpNop
	OpLoop
	OpIncIterationNumber
	OpResetIterationNumber
	OpGoto
	OpJmpNZ
	OpJmpEZ
	OpLogRelationTimer
	OpLogTimer
	OpStopLogTimer
	OpDebugInfo
	OpStratum
	OpCreate
	OpClear
	OpDrop
	OpLogSize
	OpLoad
	OpStore
	OpFact
	OpQuery
	OpMerge
	OpSwap

	// iterators
	OpIterInitFullIndex
	OpIterInitRangeIndexOneArg
	OpIterInitRangeIndex
	OpIterNotAtEnd
	OpIterSelect
	OpIterInc

	OpStop

	numOpcodes
)

// OperandKind says how an operand word is interpreted.
type OperandKind int

const (
	OperandValue    OperandKind = iota // domain value
	OperandTuple                       // tuple slot
	OperandElement                     // attribute offset
	OperandCount                       // operand or field count
	OperandArity                       // tuple width
	OperandArgument                    // subroutine argument index
	OperandSymbol                      // string table symbol
	OperandRelation                    // relation handle
	OperandOrder                       // lexicographic order number
	OperandMask                        // packed search mask word
	OperandIterator                    // iterator handle
	OperandTimer                       // timer handle
	OperandAddress                     // absolute code address
	OperandIO                          // I/O directive index
	OperandFlag                        // 0 or 1
)

// Trailing describes operands following the fixed ones.
type Trailing int

const (
	TrailingNone Trailing = iota
	// TrailingMasks: MaskWords(arity) mask words, arity taken from the
	// relation operand.
	TrailingMasks
	// TrailingAddresses: one address per child, count taken from the first
	// operand.
	TrailingAddresses
)

// Info is the static decoding contract of an opcode.
type Info struct {
	Name     string
	Operands []OperandKind
	Trailing Trailing
}

var opcodes = [numOpcodes]Info{
	OpNumber:               {"NUMBER", []OperandKind{OperandValue}, TrailingNone},
	OpTupleElement:         {"TUPLE_ELEMENT", []OperandKind{OperandTuple, OperandElement}, TrailingNone},
	OpAutoIncrement:        {Name: "AUTO_INCREMENT"},
	OpOrd:                  {Name: "ORD"},
	OpStrlen:               {Name: "STRLEN"},
	OpNeg:                  {Name: "NEG"},
	OpBNot:                 {Name: "BNOT"},
	OpLNot:                 {Name: "LNOT"},
	OpToNumber:             {Name: "TONUMBER"},
	OpToString:             {Name: "TOSTRING"},
	OpAdd:                  {Name: "ADD"},
	OpSub:                  {Name: "SUB"},
	OpMul:                  {Name: "MUL"},
	OpDiv:                  {Name: "DIV"},
	OpExp:                  {Name: "EXP"},
	OpMod:                  {Name: "MOD"},
	OpBAnd:                 {Name: "BAND"},
	OpBOr:                  {Name: "BOR"},
	OpBXor:                 {Name: "BXOR"},
	OpLAnd:                 {Name: "LAND"},
	OpLOr:                  {Name: "LOR"},
	OpMax:                  {"MAX", []OperandKind{OperandCount}, TrailingNone},
	OpMin:                  {"MIN", []OperandKind{OperandCount}, TrailingNone},
	OpCat:                  {"CAT", []OperandKind{OperandCount}, TrailingNone},
	OpSubstr:               {Name: "SUBSTR"},
	OpUserDefinedOperator:  {"USER_DEFINED_OPERATOR", []OperandKind{OperandSymbol, OperandSymbol, OperandCount}, TrailingNone},
	OpPackRecord:           {"PACK_RECORD", []OperandKind{OperandCount}, TrailingNone},
	OpArgument:             {"ARGUMENT", []OperandKind{OperandArgument}, TrailingNone},
	OpTrue:                 {Name: "TRUE"},
	OpFalse:                {Name: "FALSE"},
	OpConjunction:          {Name: "CONJUNCTION"},
	OpNegation:             {Name: "NEGATION"},
	OpEmptinessCheck:       {"EMPTINESS_CHECK", []OperandKind{OperandRelation}, TrailingNone},
	OpExistenceCheckOneArg: {"EXISTENCE_CHECK_ONE_ARG", []OperandKind{OperandRelation, OperandOrder, OperandMask}, TrailingNone},
	OpExistenceCheck:       {"EXISTENCE_CHECK", []OperandKind{OperandRelation, OperandOrder}, TrailingMasks},
	OpContainCheck:         {"CONTAIN_CHECK", []OperandKind{OperandRelation}, TrailingNone},
	OpConstraint:           {Name: "CONSTRAINT"},
	OpEQ:                   {Name: "EQ"},
	OpNE:                   {Name: "NE"},
	OpLT:                   {Name: "LT"},
	OpLE:                   {Name: "LE"},
	OpGT:                   {Name: "GT"},
	OpGE:                   {Name: "GE"},
	OpMatch:                {Name: "MATCH"},
	OpNotMatch:             {Name: "NOT_MATCH"},
	OpContains:             {Name: "CONTAINS"},
	OpNotContains:          {Name: "NOT_CONTAINS"},
	OpSearch:               {"SEARCH", []OperandKind{OperandFlag, OperandSymbol}, TrailingNone},
	OpScan:                 {Name: "SCAN"},
	OpChoice:               {Name: "CHOICE"},
	OpIndexScan:            {Name: "INDEX_SCAN"},
	OpIndexChoice:          {Name: "INDEX_CHOICE"},
	OpUnpackRecord:         {"UNPACK_RECORD", []OperandKind{OperandArity, OperandTuple, OperandAddress}, TrailingNone},
	OpAggregate:            {Name: "AGGREGATE"},
	OpIndexAggregate:       {Name: "INDEX_AGGREGATE"},
	OpAggregateCount:       {"AGGREGATE_COUNT", []OperandKind{OperandIterator}, TrailingNone},
	OpAggregateReturn:      {"AGGREGATE_RETURN", []OperandKind{OperandTuple}, TrailingNone},
	OpFilter:               {"FILTER", []OperandKind{OperandSymbol}, TrailingNone},
	OpProject:              {"PROJECT", []OperandKind{OperandArity, OperandRelation}, TrailingNone},
	OpReturnValue:          {"RETURN_VALUE", []OperandKind{OperandCount, OperandSymbol}, TrailingNone},
	OpSequence:             {Name: "SEQUENCE"},
	OpParallel:             {"PARALLEL", []OperandKind{OperandCount, OperandAddress}, TrailingAddresses},
	OpStopParallel:         {Name: "STOP_PARALLEL"},
	OpNop:                  {Name: "NOP"},
	OpLoop:                 {Name: "LOOP"},
	OpIncIterationNumber:   {Name: "INC_ITERATION_NUMBER"},
	OpResetIterationNumber: {Name: "RESET_ITERATION_NUMBER"},
	OpGoto:                 {"GOTO", []OperandKind{OperandAddress}, TrailingNone},
	OpJmpNZ:                {"JMPNZ", []OperandKind{OperandAddress}, TrailingNone},
	OpJmpEZ:                {"JMPEZ", []OperandKind{OperandAddress}, TrailingNone},
	OpLogRelationTimer:     {"LOG_RELATION_TIMER", []OperandKind{OperandSymbol, OperandTimer, OperandRelation}, TrailingNone},
	OpLogTimer:             {"LOG_TIMER", []OperandKind{OperandSymbol, OperandTimer}, TrailingNone},
	OpStopLogTimer:         {"STOP_LOG_TIMER", []OperandKind{OperandTimer}, TrailingNone},
	OpDebugInfo:            {"DEBUG_INFO", []OperandKind{OperandSymbol}, TrailingNone},
	OpStratum:              {Name: "STRATUM"},
	OpCreate:               {"CREATE", []OperandKind{OperandRelation}, TrailingNone},
	OpClear:                {"CLEAR", []OperandKind{OperandRelation}, TrailingNone},
	OpDrop:                 {"DROP", []OperandKind{OperandRelation}, TrailingNone},
	OpLogSize:              {"LOG_SIZE", []OperandKind{OperandRelation, OperandSymbol}, TrailingNone},
	OpLoad:                 {"LOAD", []OperandKind{OperandRelation, OperandIO}, TrailingNone},
	OpStore:                {"STORE", []OperandKind{OperandRelation, OperandIO}, TrailingNone},
	OpFact:                 {"FACT", []OperandKind{OperandRelation, OperandArity}, TrailingNone},
	OpQuery:                {Name: "QUERY"},
	OpMerge:                {"MERGE", []OperandKind{OperandRelation, OperandRelation}, TrailingNone},
	OpSwap:                 {"SWAP", []OperandKind{OperandRelation, OperandRelation}, TrailingNone},

	OpIterInitFullIndex:        {"ITER_INIT_FULL_INDEX", []OperandKind{OperandIterator, OperandRelation}, TrailingNone},
	OpIterInitRangeIndexOneArg: {"ITER_INIT_RANGE_INDEX_ONE_ARG", []OperandKind{OperandIterator, OperandRelation, OperandOrder, OperandMask}, TrailingNone},
	OpIterInitRangeIndex:       {"ITER_INIT_RANGE_INDEX", []OperandKind{OperandIterator, OperandRelation, OperandOrder}, TrailingMasks},
	OpIterNotAtEnd:             {"ITER_NOT_AT_END", []OperandKind{OperandIterator}, TrailingNone},
	OpIterSelect:               {"ITER_SELECT", []OperandKind{OperandIterator, OperandTuple}, TrailingNone},
	OpIterInc:                  {"ITER_INC", []OperandKind{OperandIterator}, TrailingNone},

	OpStop: {Name: "STOP"},
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, numOpcodes)
	for op := Opcode(0); op < numOpcodes; op++ {
		m[opcodes[op].Name] = op
	}
	return m
}()

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	return op >= 0 && op < numOpcodes
}

// Info returns the decoding contract of op.
func (op Opcode) Info() (Info, bool) {
	if !op.Valid() {
		return Info{}, false
	}
	return opcodes[op], true
}

func (op Opcode) String() string {
	if op.Valid() {
		return opcodes[op].Name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// ParseOpcode maps an opcode name to its Opcode.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// Opcodes returns every defined opcode in numeric order.
func Opcodes() []Opcode {
	out := make([]Opcode, numOpcodes)
	for i := range out {
		out[i] = Opcode(i)
	}
	return out
}
