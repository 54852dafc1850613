/*
 *  genomaker.go
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
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
)

// ArtificialChrName is the name of the synthetic capture chromosome
const ArtificialChrName = "chr_artificial_ssDNA"

// OligoSeq is one annealing oligo with its donor sequence
type OligoSeq struct {
	Name     string
	Sequence string
}

// ParseOligoSeqs reads the annealing oligo table, keeping the name and the
// modified sequence columns (falls back to the plain sequence column)
func ParseOligoSeqs(filename string) []OligoSeq {
	fh := mustOpen(filename)
	defer fh.Close()

	headerLine, err := fh.ReadString('\n')
	if err != nil && err != io.EOF {
		ErrorAbort(err)
	}
	delim := detectDelimiter(headerLine)
	nameCol, seqCol := -1, -1
	for i, col := range strings.Split(strings.TrimSpace(headerLine), string(delim)) {
		switch strings.ToLower(col) {
		case "name":
			nameCol = i
		case "sequence_modified":
			seqCol = i
		case "sequence", "sequence_original":
			if seqCol < 0 {
				seqCol = i
			}
		}
	}
	if nameCol < 0 || seqCol < 0 {
		log.Fatalf("%s: need name and sequence columns: %s", filename, headerLine)
	}

	var oligos []OligoSeq
	r := csv.NewReader(bufio.NewReader(fh))
	r.Comma = delim
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		if nameCol >= len(rec) || seqCol >= len(rec) {
			continue
		}
		s := strings.ToUpper(strings.TrimSpace(rec[seqCol]))
		if s == "" {
			continue
		}
		oligos = append(oligos, OligoSeq{Name: rec[nameCol], Sequence: s})
	}
	log.Noticef("Loaded %d oligo sequences from `%s`", len(oligos), filename)
	return oligos
}

// ArtificialChromosome concatenates the oligo donor sequences into one
// synthetic chromosome: every oligo is padded with N up to the fragment
// size and flanked by the enzyme recognition sequence, so each oligo lands
// on its own restriction fragment after digestion.
func ArtificialChromosome(oligos []OligoSeq, enzyme string, fragmentSize int) string {
	enzyme = strings.ToUpper(enzyme)
	var sb strings.Builder
	sb.WriteString(enzyme)
	for _, o := range oligos {
		block := o.Sequence
		if pad := fragmentSize - len(block) - len(enzyme); pad > 0 {
			block += strings.Repeat("N", pad)
		}
		sb.WriteString(block)
		sb.WriteString(enzyme)
	}
	return sb.String()
}

// Genomaker appends the synthetic capture chromosome, and optionally extra
// FASTA records, to a reference genome
type Genomaker struct {
	GenomeFile   string
	OligosFile   string
	Enzyme       string
	FragmentSize int
	LineLength   int
	// Extra FASTA records concatenated after the artificial chromosome
	AdditionalFile string
	OutGenomeFile  string
}

// Run writes the edited genome FASTA
func (r *Genomaker) Run() {
	mustExist(r.GenomeFile)
	if r.FragmentSize == 0 {
		r.FragmentSize = 150
	}
	if r.LineLength == 0 {
		r.LineLength = 80
	}
	if r.OutGenomeFile == "" {
		r.OutGenomeFile = RemoveExt(r.GenomeFile) + "_artificial.fa"
	}

	oligos := ParseOligoSeqs(r.OligosFile)
	artificial := ArtificialChromosome(oligos, r.Enzyme, r.FragmentSize)

	w, err := xopen.Wopen(r.OutGenomeFile)
	if err != nil {
		ErrorAbort(err)
	}
	defer w.Close()

	copyFasta := func(filename string) {
		reader, err := fastx.NewDefaultReader(filename)
		if err != nil {
			log.Fatalf("%s: %v", filename, err)
		}
		seq.ValidateSeq = false
		for {
			rec, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				log.Fatalf("%s: %v", filename, err)
			}
			rec.FormatToWriter(w, r.LineLength)
		}
	}
	copyFasta(r.GenomeFile)
	writeFastaRecord(w, ArtificialChrName, artificial, r.LineLength)
	if r.AdditionalFile != "" {
		copyFasta(r.AdditionalFile)
	}
	w.Flush()
	log.Noticef("Genome with %d bp artificial chromosome written to `%s`",
		len(artificial), r.OutGenomeFile)
	log.Notice("Success")
}

func writeFastaRecord(w io.Writer, name, sequence string, lineLength int) {
	fmt.Fprintf(w, ">%s\n", name)
	for i := 0; i < len(sequence); i += lineLength {
		end := min(i+lineLength, len(sequence))
		fmt.Fprintln(w, sequence[i:end])
	}
}
