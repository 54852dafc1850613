/*
 *  matrix.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// ContactPair is one cell of the sparse contact matrix. Pairs are symmetric:
// (A,B) and (B,A) are the same entity, stored with A <= B.
type ContactPair struct {
	A     int
	B     int
	Count int
}

// ContactMatrix is the sparse fragment-pair contact matrix, read-only once
// loaded; downstream stages only filter it into subsets.
type ContactMatrix struct {
	Pairs []ContactPair
}

// Total returns the sum of all contact counts
func (r *ContactMatrix) Total() int {
	total := 0
	for _, p := range r.Pairs {
		total += p.Count
	}
	return total
}

// ParseMatrix reads the sparse matrix rows (fragment a, fragment b, count).
// The first line is a header and is skipped; pairs are canonicalized to
// A <= B on the way in.
func ParseMatrix(filename string) *ContactMatrix {
	log.Noticef("Parse sparse matrix `%s`", filename)

	fh := mustOpen(filename)
	defer fh.Close()

	m := &ContactMatrix{}
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for i := 0; scanner.Scan(); i++ {
		if i == 0 {
			continue // Skip header
		}
		words := strings.Fields(scanner.Text())
		if len(words) < 3 {
			log.Fatalf("%s: sparse matrix row needs (frag_a, frag_b, contacts): %q", filename, scanner.Text())
		}
		a, err1 := strconv.Atoi(words[0])
		b, err2 := strconv.Atoi(words[1])
		count, err3 := strconv.Atoi(words[2])
		if err1 != nil || err2 != nil || err3 != nil {
			log.Fatalf("%s: bad sparse matrix row: %q", filename, scanner.Text())
		}
		if a > b {
			a, b = b, a
		}
		m.Pairs = append(m.Pairs, ContactPair{A: a, B: b, Count: count})
	}
	ErrorAbort(scanner.Err())
	log.Noticef("Loaded %d contact pairs (total = %d)", len(m.Pairs), m.Total())
	return m
}

// WriteMatrix writes a sparse matrix in the same format it is read
func WriteMatrix(m *ContactMatrix, outfile string) {
	f := mustCreate(outfile)
	w := bufio.NewWriter(f)
	defer f.Close()

	fmt.Fprintln(w, "id_frag_a\tid_frag_b\tn_contact")
	for _, p := range m.Pairs {
		fmt.Fprintf(w, "%d\t%d\t%d\n", p.A, p.B, p.Count)
	}
	w.Flush()
	log.Noticef("Sparse matrix with %d pairs written to `%s`", len(m.Pairs), outfile)
}

// Importer converts an aligned, mate-paired BAM into the sparse fragment
// pair contact matrix. Alignment itself happens upstream; this only resolves
// already-mapped pair positions to fragments and tabulates the counts.
type Importer struct {
	Bamfile string
	MinMapQ byte
	Genome  *Genome
	// Output file
	OutMatrixfile string
}

// Run converts the BAM to a sparse matrix file
func (r *Importer) Run() {
	m := r.ImportPairs()
	outfile := RemoveExt(r.Bamfile) + ".matrix.txt"
	r.OutMatrixfile = outfile
	WriteMatrix(m, outfile)
	log.Notice("Success")
}

// ImportPairs scans the BAM and accumulates one count per read pair on the
// (fragment, fragment) cell containing the two mapped positions
func (r *Importer) ImportPairs() *ContactMatrix {
	fh := mustOpen(r.Bamfile)
	defer fh.Close()

	log.Noticef("Parse bamfile `%s`", r.Bamfile)
	br, err := bam.NewReader(fh, 0)
	if br == nil {
		log.Errorf("Cannot open bamfile `%s` (%s)", r.Bamfile, err)
		os.Exit(1)
	}
	defer br.Close()

	counts := make(map[[2]int]int)
	nPairs, nSkipped := 0, 0
	for {
		rec, err := br.Read()
		if err != nil {
			if err != io.EOF {
				log.Error(err)
			}
			break
		}
		// Filtering: Unmapped | Secondary | QCFail | Duplicate | Supplementary
		if rec.MapQ < r.MinMapQ || rec.Flags&3844 != 0 {
			continue
		}
		// Count each pair once, from its first read
		if rec.Flags&sam.Paired == 0 || rec.Flags&sam.Read1 == 0 || rec.Flags&sam.MateUnmapped != 0 {
			continue
		}

		fa, err := r.Genome.Resolve(rec.Ref.Name(), rec.Pos)
		if err != nil {
			nSkipped++
			continue
		}
		fb, err := r.Genome.Resolve(rec.MateRef.Name(), rec.MatePos)
		if err != nil {
			nSkipped++
			continue
		}
		a, b := fa.ID, fb.ID
		if a > b {
			a, b = b, a
		}
		counts[[2]int{a, b}]++
		nPairs++
	}
	if nSkipped > 0 {
		log.Warningf("%d read pairs could not be placed on a fragment", nSkipped)
	}

	m := &ContactMatrix{Pairs: make([]ContactPair, 0, len(counts))}
	for pair, count := range counts {
		m.Pairs = append(m.Pairs, ContactPair{A: pair[0], B: pair[1], Count: count})
	}
	sort.Slice(m.Pairs, func(i, j int) bool {
		return m.Pairs[i].A < m.Pairs[j].A ||
			(m.Pairs[i].A == m.Pairs[j].A && m.Pairs[i].B < m.Pairs[j].B)
	})
	log.Noticef("Imported %d pairs into %d matrix cells", nPairs, len(m.Pairs))
	return m
}
