/*
 *  base.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/shenwei356/xopen"
)

const (
	// Version is the current version of sshic
	Version = "0.3.1"
	// DefaultBinSize is the default resolution for rebinned profiles
	DefaultBinSize = 1000
	// DefaultCisRange is the default region around a probe considered cis
	DefaultCisRange = 50000
	// DefaultCenWindow is the default half-window around centromeres
	DefaultCenWindow = 150000
	// DefaultTeloWindow is the default half-window around telomeres
	DefaultTeloWindow = 15000
	// DefaultCenBinSize is the default profile resolution for centromere aggregation
	DefaultCenBinSize = 10000
	// DefaultTeloBinSize is the default profile resolution for telomere aggregation
	DefaultTeloBinSize = 1000
	// DefaultFlanking is how many fragments flanking a dsDNA probe are dropped in hiconly mode
	DefaultFlanking = 2
	// DefaultWorkers bounds the per-probe worker pool
	DefaultWorkers = 8
	// ArmLengthTeloWindow is the telomere window used for arm-length classification
	ArmLengthTeloWindow = 30000
	// RebinTolerance is the relative tolerance for count conservation checks
	RebinTolerance = 1e-6
)

var log = logging.MustGetLogger("sshic")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// ErrorAbort logs the error and quits
func ErrorAbort(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// mustExist aborts the run if a file is missing
func mustExist(filename string) {
	if _, err := os.Stat(filename); err != nil {
		ErrorAbort(err)
	}
}

// mustOpen opens a possibly gzipped file or aborts
func mustOpen(filename string) *xopen.Reader {
	r, err := xopen.Ropen(filename)
	if err != nil {
		log.Errorf("Cannot open `%s` (%s)", filename, err)
		os.Exit(1)
	}
	return r
}

// mustCreate creates a file for writing or aborts
func mustCreate(filename string) *os.File {
	f, err := os.Create(filename)
	ErrorAbort(err)
	return f
}

// abs gets the absolute value of an int
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// min gets the minimum for two ints
func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

// sumf gets the sum for a float64 slice, NaN entries are skipped
func sumf(a []float64) float64 {
	ans := 0.0
	for _, x := range a {
		if math.IsNaN(x) {
			continue
		}
		ans += x
	}
	return ans
}

// Percentage prints a human readable message of the percentage
func Percentage(a, b int) string {
	return fmt.Sprintf("%d of %d (%.1f %%)", a, b, float64(a)*100./float64(b))
}

// detectDelimiter sniffs tab versus comma from the header line
func detectDelimiter(line string) rune {
	if strings.Count(line, "\t") >= strings.Count(line, ",") {
		return '\t'
	}
	return ','
}

// ReadTableLines parses all the lines of a delimited table into a 2D array of
// tokens, skipping the header row. The delimiter (tab or comma) is sniffed
// from the header so .tsv and .csv inputs are treated alike.
func ReadTableLines(filename string) [][]string {
	log.Noticef("Parse table `%s`", filename)

	fh := mustOpen(filename)
	defer fh.Close()

	header, err := fh.ReadString('\n')
	if err != nil && err != io.EOF {
		ErrorAbort(err)
	}

	var data [][]string
	r := csv.NewReader(bufio.NewReader(fh))
	r.Comma = detectDelimiter(header)
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		data = append(data, rec)
	}

	return data
}

// searchInt64 searches the position within a sorted int64 slice
func searchInt64(a []int64, x int64) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}
