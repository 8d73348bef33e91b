// mkfixture creates a small representative Parquet fixture from a full fee
// schedule extract. Two-pass: first scans all rows to bucket diverse
// candidates, then selects the best N.
// Usage: go run ./cmd/mkfixture --in testdata/rvu-full.parquet --out testdata/rvu-small.parquet --rows 200
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/maggiexgao/explain-my-bills/internal/model"
)

func main() {
	in := flag.String("in", "testdata/rvu-full.parquet", "input parquet")
	out := flag.String("out", "testdata/rvu-small.parquet", "output parquet")
	maxRows := flag.Int("rows", 200, "max rows to output")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	stat, _ := f.Stat()
	pf, err := goparquet.OpenFile(f, stat.Size())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open parquet: %v\n", err)
		os.Exit(1)
	}

	reader := goparquet.NewGenericReader[model.RVUParquetRow](pf)
	defer reader.Close()

	if *checkOnly {
		printStats(reader)
		return
	}

	// Pass 1: read all rows, bucket by pricing traits so the fixture keeps
	// every path the resolver can take.
	type bucket struct {
		name string
		rows []model.RVUParquetRow
		want int
	}
	buckets := []*bucket{
		{name: "modifier", want: 30},
		{name: "direct_fee", want: 40},
		{name: "bundled", want: 15},
		{name: "rvu_only", want: 40},
		{name: "general", want: 0},
	}
	bucketMap := make(map[string]*bucket)
	for _, b := range buckets {
		bucketMap[b.name] = b
	}

	buf := make([]model.RVUParquetRow, 1024)
	var totalRead int
	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			totalRead++
			row := buf[i]

			placed := false
			if row.Modifier != nil && *row.Modifier != "" && len(bucketMap["modifier"].rows) < bucketMap["modifier"].want {
				bucketMap["modifier"].rows = append(bucketMap["modifier"].rows, row)
				placed = true
			}
			if (row.FacFee != nil || row.NonFacFee != nil) && len(bucketMap["direct_fee"].rows) < bucketMap["direct_fee"].want {
				bucketMap["direct_fee"].rows = append(bucketMap["direct_fee"].rows, row)
				placed = true
			}
			if row.StatusCode != nil && *row.StatusCode == "B" && len(bucketMap["bundled"].rows) < bucketMap["bundled"].want {
				bucketMap["bundled"].rows = append(bucketMap["bundled"].rows, row)
				placed = true
			}
			if row.FacFee == nil && row.NonFacFee == nil && row.WorkRVU != nil && len(bucketMap["rvu_only"].rows) < bucketMap["rvu_only"].want {
				bucketMap["rvu_only"].rows = append(bucketMap["rvu_only"].rows, row)
				placed = true
			}
			if !placed && len(bucketMap["general"].rows) < *maxRows {
				bucketMap["general"].rows = append(bucketMap["general"].rows, row)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", readErr)
			os.Exit(1)
		}
	}
	fmt.Printf("Scanned %d rows\n", totalRead)

	// Merge buckets in priority order
	var selected []model.RVUParquetRow
	for _, b := range buckets {
		if b.name == "general" {
			continue
		}
		for _, row := range b.rows {
			if len(selected) >= *maxRows {
				break
			}
			selected = append(selected, row)
		}
	}
	for _, row := range bucketMap["general"].rows {
		if len(selected) >= *maxRows {
			break
		}
		selected = append(selected, row)
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	writer := goparquet.NewGenericWriter[model.RVUParquetRow](outFile)
	if _, err := writer.Write(selected); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}

	var modCount, feeCount, bundledCount int
	for _, row := range selected {
		if row.Modifier != nil && *row.Modifier != "" {
			modCount++
		}
		if row.FacFee != nil || row.NonFacFee != nil {
			feeCount++
		}
		if row.StatusCode != nil && *row.StatusCode == "B" {
			bundledCount++
		}
	}
	fmt.Printf("Wrote %d rows to %s\n", len(selected), *out)
	fmt.Printf("  %-12s %d\n", "modifier", modCount)
	fmt.Printf("  %-12s %d\n", "direct_fee", feeCount)
	fmt.Printf("  %-12s %d\n", "bundled", bundledCount)
}

func printStats(reader *goparquet.GenericReader[model.RVUParquetRow]) {
	buf := make([]model.RVUParquetRow, 1024)
	total := 0
	modCount := 0
	feeCount := 0
	years := make(map[int32]int)
	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			total++
			years[buf[i].Year]++
			if buf[i].Modifier != nil && *buf[i].Modifier != "" {
				modCount++
			}
			if buf[i].FacFee != nil || buf[i].NonFacFee != nil {
				feeCount++
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	fmt.Printf("Total: %d, Modifier: %d, DirectFee: %d\n", total, modCount, feeCount)
	for y, c := range years {
		fmt.Printf("  year %d: %d rows\n", y, c)
	}
}
