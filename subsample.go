/*
 *  subsample.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/klauspost/pgzip"
)

// Subsampler draws a fixed number of reads from a FASTQ file through seqtk
// and optionally recompresses the result. The seed fixes the draw, so two
// samples subsampled with the same seed keep their read pairing.
type Subsampler struct {
	FastqFile string
	Seed      int
	Size      int
	Compress  bool
	Force     bool
	OutFile   string
}

// fastqStem strips the .fastq/.fq suffix, compressed or not
func fastqStem(filename string) string {
	for _, suffix := range []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"} {
		if strings.HasSuffix(filename, suffix) {
			return strings.TrimSuffix(filename, suffix)
		}
	}
	return RemoveExt(filename)
}

// Run invokes seqtk and writes the subsampled file
func (r *Subsampler) Run() {
	mustExist(r.FastqFile)
	if r.Size == 0 {
		r.Size = 4000000
	}
	if r.Seed == 0 {
		r.Seed = 100
	}
	if r.OutFile == "" {
		r.OutFile = fmt.Sprintf("%s_sub%s.fastq", fastqStem(r.FastqFile), humanSize(r.Size))
		if r.Compress {
			r.OutFile += ".gz"
		}
	}
	if _, err := os.Stat(r.OutFile); err == nil && !r.Force {
		log.Noticef("Output file `%s` exists, skipping (use force to overwrite)", r.OutFile)
		return
	}

	seqtk, err := exec.LookPath("seqtk")
	if err != nil {
		ErrorAbort(fmt.Errorf("seqtk not found in PATH: %v", err))
	}

	cmd := exec.Command(seqtk, "sample", fmt.Sprintf("-s%d", r.Seed),
		r.FastqFile, fmt.Sprintf("%d", r.Size))
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		ErrorAbort(err)
	}

	f := mustCreate(r.OutFile)
	defer f.Close()
	var w io.WriteCloser = f
	if r.Compress {
		w = pgzip.NewWriter(f)
	}

	log.Noticef("Subsample %d reads from `%s` (seed = %d)", r.Size, r.FastqFile, r.Seed)
	if err := cmd.Start(); err != nil {
		ErrorAbort(err)
	}
	if _, err := io.Copy(w, stdout); err != nil {
		ErrorAbort(err)
	}
	if err := cmd.Wait(); err != nil {
		ErrorAbort(fmt.Errorf("seqtk sample failed: %v", err))
	}
	if r.Compress {
		if err := w.Close(); err != nil {
			ErrorAbort(err)
		}
	}
	log.Noticef("Subsampled reads written to `%s`", r.OutFile)
	log.Notice("Success")
}

// humanSize renders a read count the way sample names do, e.g. 4M or 500K
func humanSize(n int) string {
	switch {
	case n >= 1000000 && n%1000000 == 0:
		return fmt.Sprintf("%dM", n/1000000)
	case n >= 1000 && n%1000 == 0:
		return fmt.Sprintf("%dK", n/1000)
	}
	return fmt.Sprintf("%d", n)
}
