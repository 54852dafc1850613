/*
 *  genome.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package sshic

import (
	"strconv"

	"github.com/pkg/errors"
)

// Chromosome stores one row of the chromosome coordinates table. The
// centromere position equals the left arm length, as in the hicstuff
// coordinates files.
type Chromosome struct {
	Name     string
	Length   int
	LeftArm  int
	RightArm int
	Category string
	Ordinal  int
	Offset   int64
}

// Centromere returns the centromere position of the chromosome
func (r *Chromosome) Centromere() int {
	return r.LeftArm
}

// Fragment is a restriction fragment, the atomic unit of the contact matrix.
// Intervals are half-open [Start, End).
type Fragment struct {
	ID    int
	Chrom string
	Start int
	End   int
}

// Length returns the span of the fragment
func (r *Fragment) Length() int {
	return r.End - r.Start
}

// Genome is the coordinate index: chromosome order and lengths plus the
// fragment table, immutable once built. It flattens (chromosome, position)
// into a single genome-wide coordinate and resolves positions to fragments.
type Genome struct {
	Chroms    []*Chromosome
	Fragments []Fragment

	chromIdx      map[string]int
	fragIDs       map[string][]int
	fragStarts    map[string][]int64
	fragByID      map[int]int
	inconsistent  map[string]bool
	totalLength   int64
	nInconsistent int
}

// NewGenome builds the coordinate index from the chromosome list. Ordinals
// and genome-wide offsets follow the order of the slice, which replaces any
// implicit ordering assumption with an explicit mapping.
func NewGenome(chroms []Chromosome) *Genome {
	g := &Genome{
		chromIdx:     make(map[string]int),
		fragIDs:      make(map[string][]int),
		fragStarts:   make(map[string][]int64),
		inconsistent: make(map[string]bool),
	}
	offset := int64(0)
	for i := range chroms {
		c := chroms[i]
		c.Ordinal = i
		c.Offset = offset
		offset += int64(c.Length)
		g.chromIdx[c.Name] = i
		g.Chroms = append(g.Chroms, &c)
	}
	g.totalLength = offset
	return g
}

// ChromByName looks up a chromosome, nil if absent
func (r *Genome) ChromByName(name string) *Chromosome {
	i, ok := r.chromIdx[name]
	if !ok {
		return nil
	}
	return r.Chroms[i]
}

// TotalLength returns the genome-wide length in bp
func (r *Genome) TotalLength() int64 {
	return r.totalLength
}

// SetFragments installs the fragment table. Fragments of each chromosome
// must be contiguous, non-overlapping and sorted by start; a chromosome
// violating the invariant is reported and skipped (its fragments resolve to
// ErrInconsistentFragments) while the rest of the genome stays usable.
func (r *Genome) SetFragments(frags []Fragment) {
	r.Fragments = frags
	r.fragByID = make(map[int]int, len(frags))
	byChrom := make(map[string][]int)
	for i := range frags {
		f := &frags[i]
		r.fragByID[f.ID] = i
		if r.ChromByName(f.Chrom) == nil {
			log.Warningf("Fragment %d is on unknown chromosome `%s`, ignored", f.ID, f.Chrom)
			continue
		}
		byChrom[f.Chrom] = append(byChrom[f.Chrom], i)
	}

	for chrom, ids := range byChrom {
		prevEnd := -1
		ok := true
		for _, i := range ids {
			f := &frags[i]
			if prevEnd >= 0 && f.Start != prevEnd {
				ok = false
				break
			}
			if f.End <= f.Start {
				ok = false
				break
			}
			prevEnd = f.End
		}
		if !ok {
			log.Errorf("Fragments of `%s` are not contiguous and sorted, chromosome skipped", chrom)
			r.inconsistent[chrom] = true
			r.nInconsistent++
			continue
		}
		starts := make([]int64, len(ids))
		for j, i := range ids {
			starts[j] = int64(frags[i].Start)
		}
		r.fragIDs[chrom] = ids
		r.fragStarts[chrom] = starts
	}
}

// GenomeOffset maps (chromosome, position) to the single monotonically
// increasing genome-wide coordinate
func (r *Genome) GenomeOffset(chrom string, pos int) (int64, error) {
	c := r.ChromByName(chrom)
	if c == nil {
		return 0, errors.Wrapf(ErrUnknownChrom, "%s", chrom)
	}
	if pos < 0 || pos >= c.Length {
		return 0, errors.Wrapf(ErrOutOfRange, "%s:%d (length %d)", chrom, pos, c.Length)
	}
	return c.Offset + int64(pos), nil
}

// Resolve returns the fragment containing (chromosome, position). Fragments
// are half-open, so a position exactly on a boundary resolves to the
// downstream fragment.
func (r *Genome) Resolve(chrom string, pos int) (*Fragment, error) {
	c := r.ChromByName(chrom)
	if c == nil {
		return nil, errors.Wrapf(ErrUnknownChrom, "%s", chrom)
	}
	if pos < 0 || pos >= c.Length {
		return nil, errors.Wrapf(ErrOutOfRange, "%s:%d (length %d)", chrom, pos, c.Length)
	}
	if r.inconsistent[chrom] {
		return nil, errors.Wrapf(ErrInconsistentFragments, "%s", chrom)
	}
	starts := r.fragStarts[chrom]
	if len(starts) == 0 {
		return nil, errors.Wrapf(ErrInconsistentFragments, "%s has no fragments", chrom)
	}
	// First fragment with start > pos is one past the containing fragment
	j := searchInt64(starts, int64(pos)+1) - 1
	if j < 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "%s:%d before first fragment", chrom, pos)
	}
	f := &r.Fragments[r.fragIDs[chrom][j]]
	if pos >= f.End {
		return nil, errors.Wrapf(ErrOutOfRange, "%s:%d after last fragment", chrom, pos)
	}
	return f, nil
}

// FragmentByID looks up a fragment by its table identifier, nil if absent
func (r *Genome) FragmentByID(id int) *Fragment {
	i, ok := r.fragByID[id]
	if !ok {
		return nil
	}
	return &r.Fragments[i]
}

// FragmentsOf returns the fragments of one chromosome in genomic order
func (r *Genome) FragmentsOf(chrom string) []*Fragment {
	ids := r.fragIDs[chrom]
	frags := make([]*Fragment, len(ids))
	for j, i := range ids {
		frags[j] = &r.Fragments[i]
	}
	return frags
}

// ParseChrCoords reads the chromosome coordinates table with columns
// (chr, length[, left_arm_length, right_arm_length, category])
func ParseChrCoords(filename string) []Chromosome {
	var chroms []Chromosome
	for _, rec := range ReadTableLines(filename) {
		if len(rec) < 2 {
			log.Fatalf("%s: chromosome row needs at least (chr, length): %v", filename, rec)
		}
		length, err := strconv.Atoi(rec[1])
		if err != nil {
			log.Fatalf("%s: bad chromosome length `%s` (%s)", filename, rec[1], err)
		}
		c := Chromosome{Name: rec[0], Length: length}
		if len(rec) > 2 && rec[2] != "" {
			c.LeftArm, _ = strconv.Atoi(rec[2])
		}
		if len(rec) > 3 && rec[3] != "" {
			c.RightArm, _ = strconv.Atoi(rec[3])
		}
		if len(rec) > 4 {
			c.Category = rec[4]
		}
		chroms = append(chroms, c)
	}
	log.Noticef("Loaded %d chromosomes", len(chroms))
	return chroms
}

// ParseFragments reads the fragment table with columns
// (id, chrom, start, end), sorted per chromosome
func ParseFragments(filename string) []Fragment {
	var frags []Fragment
	for _, rec := range ReadTableLines(filename) {
		if len(rec) < 4 {
			log.Fatalf("%s: fragment row needs (id, chrom, start, end): %v", filename, rec)
		}
		id, err1 := strconv.Atoi(rec[0])
		start, err2 := strconv.Atoi(rec[2])
		end, err3 := strconv.Atoi(rec[3])
		if err1 != nil || err2 != nil || err3 != nil {
			log.Fatalf("%s: bad fragment row: %v", filename, rec)
		}
		frags = append(frags, Fragment{ID: id, Chrom: rec[1], Start: start, End: end})
	}
	log.Noticef("Loaded %d fragments", len(frags))
	return frags
}

// LoadGenome builds the coordinate index from the two tables. The fragments
// file may be empty when only chromosome coordinates are needed.
func LoadGenome(chrCoordsFile, fragmentsFile string) *Genome {
	g := NewGenome(ParseChrCoords(chrCoordsFile))
	if fragmentsFile != "" {
		g.SetFragments(ParseFragments(fragmentsFile))
	}
	return g
}
