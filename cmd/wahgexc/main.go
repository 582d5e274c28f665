// Command wahgexc compiles a regular expression pattern into a WASM module
// and writes the result to stdout or a named file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wahgex/wahgex"
)

func main() {
	var (
		output  = flag.String("o", "", "output file for the compiled .wasm bytes (default: stdout)")
		wat     = flag.Bool("wat", false, "print the diagnostic WAT rendering to stderr")
		stats   = flag.Bool("stats", false, "print compile diagnostics as JSON to stderr")
		reverse = flag.Bool("reverse", false, "build the NFA to read the pattern in reverse (passthrough flag only)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <pattern>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	pattern := flag.Arg(0)

	cfg := wahgex.DefaultConfig()
	cfg.NFA.Reverse = *reverse
	cfg.RenderWAT = *wat

	mod, err := wahgex.CompileWithConfig(pattern, cfg)
	if err != nil {
		log.Fatalf("wahgexc: %v", err)
	}

	if *wat {
		fmt.Fprintln(os.Stderr, mod.WatString)
	}
	if *stats {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		if err := enc.Encode(mod); err != nil {
			log.Fatalf("wahgexc: failed to encode stats: %v", err)
		}
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("wahgexc: %v", err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(mod.WasmBytes); err != nil {
		log.Fatalf("wahgexc: failed to write output: %v", err)
	}
}
