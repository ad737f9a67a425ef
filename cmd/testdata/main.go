package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"pkg.jsn.cam/extsort/internal/generator"
)

/*generates sorter test input in the form of {number}. {word} {word} ...*/

var (
	LineCount  = flag.Int64("line_count", 1e4, "Total number of lines to generate")
	MaxNumber  = flag.Int("max_line_number", generator.DefaultMaxLineNumber, "Exclusive upper bound for the line-number prefix")
	MaxWords   = flag.Int("max_words", generator.DefaultMaxWordsPerLine, "Exclusive upper bound for words per line")
	QueueDepth = flag.Int("queue_depth", generator.DefaultQueueDepth, "Capacity of the producer/writer channel")
	OutputPath = flag.String("output", "var/testdata.txt", "Output file path")
)

func main() {
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*OutputPath), 0755); err != nil {
		panic(err)
	}
	file, err := os.Create(*OutputPath)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	bar := progressbar.Default(*LineCount, "generating")
	err = generator.Generate(file, generator.Config{
		LineCount:       *LineCount,
		MaxLineNumber:   *MaxNumber,
		MaxWordsPerLine: *MaxWords,
		QueueDepth:      *QueueDepth,
	}, func() {
		_ = bar.Add(1)
	})
	if err != nil {
		log.Fatal("Error generating test data:", err)
	}
}
