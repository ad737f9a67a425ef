package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"pkg.jsn.cam/extsort/pkg/extsort"
)

var (
	input  = flag.String("i", "", "Path to the input file")
	output = flag.String("o", "", "Path to the output file (default <input-stem>-sorted<ext>)")
	chunk  = flag.Int("s", 1000, "Chunk size in lines")
)

// Diagnostics go to stdout and the exit status stays 0 either way; callers
// detect failure from the output, not the status.
func main() {
	flag.Parse()

	if *input == "" {
		fmt.Println("extsort: input file is required (-i)")
		return
	}

	sorter, err := extsort.New(*chunk)
	if err != nil {
		fmt.Println("extsort:", err)
		return
	}

	start := time.Now()
	if err := sorter.Sort(*input, *output); err != nil {
		fmt.Println("extsort:", err)
		return
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	outPath := *output
	if outPath == "" {
		outPath = extsort.DefaultOutputPath(*input)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		// An empty input sorts to nothing.
		fmt.Printf("extsort: %s contained no lines; no output written\n", *input)
		return
	}

	fmt.Printf("Sorted %s into %s (%s) in %v\n",
		*input, outPath, humanize.Bytes(uint64(info.Size())), elapsed)
}
