// cmd/consteval is a minimal test harness: this subsystem owns no wire
// protocol, persisted file format, or CLI of its own, so the harness
// hand-builds a handful of small resolved programs (standing in for a front
// end this subsystem does not include), lowers each with internal/codegen,
// runs the result through internal/executor, and prints the diagnostics and
// result value.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"constexec/internal/codegen"
	"constexec/internal/diag"
	"constexec/internal/executor"
	"constexec/internal/ir"
	"constexec/internal/memmodel"
	"constexec/internal/rast"
	"constexec/internal/types"
)

func main() {
	list := flag.Bool("list", false, "list available scenarios and exit")
	flag.Parse()

	if *list {
		for _, s := range scenarios {
			fmt.Printf("%-10s %s\n", s.Name, s.Desc)
		}
		return
	}

	names := flag.Args()
	if len(names) == 0 {
		for _, s := range scenarios {
			names = append(names, s.Name)
		}
	}

	failed := false
	for _, name := range names {
		s, ok := find(name)
		if !ok {
			log.Fatalf("unknown scenario %q (see -list)", name)
		}
		if !run(s) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func find(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return scenario{}, false
}

// run lowers and executes one scenario, printing its diagnostics and result
// to stdout. It reports whether the run completed free of error diagnostics.
func run(s scenario) bool {
	fmt.Printf("=== %s ===\n%s\n", s.Name, s.Desc)

	ts := types.NewSet(s.PointerSize)
	collector := diag.NewCollector(s.Warnings)
	mem := memmodel.NewManager(ts, s.PointerSize, collector)
	endian := ir.LittleEndian

	prog := s.Build(ts)
	funcs := codegen.GenProgram(prog, mem, ts, collector, s.Warnings, endian)
	seen := printNewDiagnostics(collector, 0)

	if collector.HadError() {
		fmt.Println("  aborted: codegen reported an error")
		return false
	}

	ex := executor.NewExecutor(mem, ts, collector, funcs, endian)
	fnIndex := entryFunc(prog)
	result := ex.Call(fnIndex, nil)
	printNewDiagnostics(collector, seen)

	if collector.HadError() {
		fmt.Println("  aborted: evaluation reported an error")
		return false
	}

	returnType := prog.Functions[fnIndex].ReturnType
	printResult(mem, returnType, endian, result)
	return true
}

// printNewDiagnostics prints every diagnostic collector has accumulated
// since index from, returning the new total so the caller can pick up where
// it left off on the next call.
func printNewDiagnostics(collector *diag.Collector, from int) int {
	all := collector.Diagnostics()
	for _, d := range all[from:] {
		fmt.Printf("  %s: %s\n", d.Severity, d.Message)
	}
	return len(all)
}

// printResult renders the returned value according to its declared type
// rather than its runtime tag: an aggregate or array result is an address
// codegen.Materialize reads back into a constant, while a scalar pointer
// result is itself the value and is printed as a raw address.
func printResult(mem *memmodel.Manager, t *types.Type, endian ir.Endian, v executor.Value) {
	switch {
	case t.IsAggregate() || t.IsArray():
		cv, err := codegen.Materialize(mem, v.P, t, endian)
		if err != nil {
			fmt.Printf("  result: <unreadable: %v>\n", err)
			return
		}
		if cv.Kind == rast.ConstString {
			fmt.Printf("  result: %q\n", cv.Str)
			return
		}
		fmt.Printf("  result: %+v\n", cv)
	case t.IsPointer():
		fmt.Printf("  result: ptr(%#x)\n", uint64(v.P))
	case t.IsBuiltin() && t.BuiltinKind().IsFloat():
		fmt.Printf("  result: %v\n", v.F)
	default:
		fmt.Printf("  result: %d\n", v.I)
	}
}
