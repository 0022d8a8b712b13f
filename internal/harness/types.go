package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// ProgramID is the content id of the compiled program. Empty when
	// compilation failed.
	ProgramID string `json:"program_id,omitempty"`

	// BuildID is the build id the scratch store assigned.
	BuildID string `json:"build_id,omitempty"`

	// Instructions is the number of decoded instructions in main.
	Instructions int `json:"instructions"`

	// Relations lists relation names in handle order.
	Relations []string `json:"relations"`

	// Opcodes counts opcode occurrences over all code buffers, by name.
	Opcodes map[string]int `json:"opcodes,omitempty"`

	// Disassembly is the lvm.Disassemble listing of the program.
	Disassembly string `json:"-"`

	// CompileError is the compilation error text, if any.
	CompileError string `json:"compile_error,omitempty"`

	// Errors contains failed expectation messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Relations: []string{},
		Opcodes:   make(map[string]int),
		Errors:    []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Pass = false
	r.Errors = append(r.Errors, err)
}
