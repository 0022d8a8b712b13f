// Package harness runs compile scenarios against the code generator.
//
// A scenario names a RAM program and the properties its compiled bytecode
// must have. The harness compiles the program, round-trips it through a
// scratch program store and checks the expectations.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: transitive_closure
//	description: "What this scenario validates"
//	source: ../../loader/testdata/transitive.cue   # or program: <inline CUE>
//	options:
//	  parallel: forkjoin
//	expect:
//	  instructions: 42          # decoded instructions in main
//	  relations: [edge, path]   # registry order
//	  contains: [INDEX_SCAN]    # opcodes that must appear
//	  absent: [PARALLEL]        # opcodes that must not appear
//	  error: UNKNOWN_SIGNATURE  # compilation must fail with this text
//	  golden: true              # compare disassembly to testdata/golden
//
// Unknown fields are rejected so typos surface as load errors.
//
// # Deterministic Testing
//
// Each run uses an in-memory store with build ids from testutil.BuildIDs,
// so build ids and seq values are identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/copy.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
