/*
 *  main.go
 *  sshic
 *
 *  Created by nmendiboure
 */

package main

import (
	"fmt"
	"os"

	sshic "github.com/nmendiboure/ssdna-hic"
	logging "github.com/op/go-logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "sshic",
	Short:   "ssDNA specific Hi-C contact analysis",
	Long:    "Builds 4C-like contact profiles of capture oligos from ssDNA Hi-C sparse matrices",
	Version: sshic.Version,
}

func init() {
	logging.SetBackend(sshic.BackendFormatter)
	rootCmd.AddCommand(
		associateCmd(), filterCmd(), hiconlyCmd(), coverageCmd(),
		profileCmd(), rebinCmd(), statsCmd(), compareCmd(), aggregateCmd(),
		pipelineCmd(), importPairsCmd(), subsampleCmd(), genomakerCmd(),
	)
}

func associateCmd() *cobra.Command {
	var fragmentsFile, chrCoordsFile, outFile string
	cmd := &cobra.Command{
		Use:   "associate probesFile",
		Short: "Associate each capture oligo with its restriction fragment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			genome := sshic.LoadGenome(chrCoordsFile, fragmentsFile)
			assoc := sshic.AssociateProbes(genome, sshic.ParseProbes(args[0]))
			if outFile == "" {
				outFile = sshic.RemoveExt(args[0]) + "_fragments_associated.tsv"
			}
			assoc.WriteAssociation(outFile)
		},
	}
	cmd.Flags().StringVarP(&fragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&chrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "output association table")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	return cmd
}

func filterCmd() *cobra.Command {
	r := sshic.Filterer{}
	cmd := &cobra.Command{
		Use:   "filter matrixFile",
		Short: "Split the sparse matrix into probe-associated and Hi-C only pairs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.MatrixFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.FragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&r.ProbesFile, "probes", "p", "", "capture oligos table")
	cmd.Flags().IntVarP(&r.Flanking, "flanking", "n", sshic.DefaultFlanking, "flanking fragments removed around dsDNA probes")
	cmd.Flags().StringVar(&r.OutFilteredFile, "out-filtered", "", "output probe-associated table")
	cmd.Flags().StringVar(&r.OutHicOnlyFile, "out-hiconly", "", "output Hi-C only sparse matrix")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	cmd.MarkFlagRequired("probes")
	return cmd
}

func hiconlyCmd() *cobra.Command {
	r := sshic.Filterer{}
	cmd := &cobra.Command{
		Use:   "hiconly matrixFile",
		Short: "Write the sparse matrix stripped of every probe-associated pair",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.MatrixFile = args[0]
			genome := sshic.LoadGenome(r.ChrCoordsFile, r.FragmentsFile)
			assoc := sshic.AssociateProbes(genome, sshic.ParseProbes(r.ProbesFile))
			m := sshic.ParseMatrix(r.MatrixFile)
			hicOnly := sshic.HicOnlyContacts(m, assoc, genome, r.Flanking)
			if r.OutHicOnlyFile == "" {
				r.OutHicOnlyFile = sshic.RemoveExt(r.MatrixFile) + "_hiconly.txt"
			}
			sshic.WriteMatrix(hicOnly, r.OutHicOnlyFile)
		},
	}
	cmd.Flags().StringVarP(&r.FragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&r.ProbesFile, "probes", "p", "", "capture oligos table")
	cmd.Flags().IntVarP(&r.Flanking, "flanking", "n", sshic.DefaultFlanking, "flanking fragments removed around dsDNA probes")
	cmd.Flags().StringVarP(&r.OutHicOnlyFile, "out", "o", "", "output sparse matrix")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	cmd.MarkFlagRequired("probes")
	return cmd
}

func coverageCmd() *cobra.Command {
	r := sshic.Coverager{}
	cmd := &cobra.Command{
		Use:   "coverage matrixFile",
		Short: "Compute the per-fragment contact coverage track",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.MatrixFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.FragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().BoolVarP(&r.Normalize, "normalize", "N", false, "divide the track by its total")
	cmd.Flags().StringVarP(&r.OutBedgraphFile, "out", "o", "", "output bedgraph")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	return cmd
}

func profileCmd() *cobra.Command {
	r := sshic.Profiler{}
	cmd := &cobra.Command{
		Use:   "profile filteredFile",
		Short: "Build the 4C-like contact profile of every probe",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.FilteredFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.FragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&r.ProbesFile, "probes", "p", "", "capture oligos table")
	cmd.Flags().StringVarP(&r.GroupsFile, "groups", "g", "", "probe groups table")
	cmd.Flags().IntVarP(&r.Workers, "workers", "w", sshic.DefaultWorkers, "parallel workers over the probe set")
	cmd.Flags().StringVar(&r.OutContactsFile, "out-contacts", "", "output contact profile")
	cmd.Flags().StringVar(&r.OutFrequenciesFile, "out-frequencies", "", "output frequency profile")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	cmd.MarkFlagRequired("probes")
	return cmd
}

func rebinCmd() *cobra.Command {
	r := sshic.Rebinner{}
	cmd := &cobra.Command{
		Use:   "rebin profileFile",
		Short: "Resample a fragment-resolution profile onto fixed-width bins",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.ProfileFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().IntVarP(&r.BinSize, "binsize", "b", sshic.DefaultBinSize, "bin width in bp")
	cmd.Flags().BoolVar(&r.ExportNpy, "npy", false, "also export the binned values as a .npy array")
	cmd.Flags().StringVarP(&r.OutBinnedFile, "out", "o", "", "output binned profile")
	cmd.MarkFlagRequired("coords")
	return cmd
}

func statsCmd() *cobra.Command {
	r := sshic.Statser{}
	cmd := &cobra.Command{
		Use:   "stats filteredFile matrixFile",
		Short: "Compute per-probe contact statistics and capture efficiencies",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			r.ProfileFile, r.MatrixFile = args[0], args[1]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.FragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&r.ProbesFile, "probes", "p", "", "capture oligos table")
	cmd.Flags().IntVarP(&r.CisRange, "cis-range", "r", sshic.DefaultCisRange, "half-width of the cis window around each probe")
	cmd.Flags().StringVar(&r.OutStatsFile, "out-stats", "", "output statistics table")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	cmd.MarkFlagRequired("probes")
	return cmd
}

func compareCmd() *cobra.Command {
	r := sshic.Comparer{}
	cmd := &cobra.Command{
		Use:   "compare statsFile refStatsFile",
		Short: "Compare capture efficiencies against a reference sample",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			r.StatsFile, r.RefStatsFile = args[0], args[1]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.RefName, "ref-name", "r", "wt", "reference sample name used in output columns")
	cmd.Flags().StringVar(&r.ProfileFile, "profile", "", "binned sample profile for bin-by-bin ratios")
	cmd.Flags().StringVar(&r.RefProfileFile, "ref-profile", "", "binned reference profile")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table (with --profile)")
	cmd.Flags().StringVar(&r.OutRatiosFile, "out", "", "output ratio table")
	return cmd
}

func aggregateCmd() *cobra.Command {
	r := sshic.Aggregator{}
	cmd := &cobra.Command{
		Use:   "aggregate binnedProfileFile",
		Short: "Aggregate binned profiles around centromeres, telomeres or custom anchors",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.ProfileFile = args[0]
			if r.Window == 0 {
				if r.On == "telomeres" {
					r.Window = sshic.DefaultTeloWindow
				} else {
					r.Window = sshic.DefaultCenWindow
				}
			}
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&r.ProbesFile, "probes", "p", "", "capture oligos table (for probe chromosome masking)")
	cmd.Flags().StringVar(&r.On, "on", "centromeres", "anchor set: centromeres, telomeres or custom")
	cmd.Flags().StringVar(&r.AnchorsFile, "anchors", "", "custom anchor table (chr, position, label)")
	cmd.Flags().IntVarP(&r.Window, "window", "w", 0, "window half-width in bp around each anchor")
	cmd.Flags().StringVar(&r.Policy, "bounds", sshic.WindowClip, "out-of-bounds window policy: clip or exclude")
	cmd.Flags().StringSliceVar(&r.ExcludedChrs, "exclude-chr", nil, "chromosomes left out of the aggregation")
	cmd.Flags().BoolVar(&r.ExcludeProbeChr, "exclude-probe-chr", true, "mask each probe's own chromosome")
	cmd.Flags().BoolVar(&r.InterNorm, "inter-norm", true, "normalize each probe column by its defined total")
	cmd.Flags().BoolVar(&r.ArmSizes, "arm-sizes", false, "also aggregate telomere windows by arm length category")
	cmd.Flags().StringVar(&r.OutPrefix, "out-prefix", "", "output file prefix")
	cmd.MarkFlagRequired("coords")
	return cmd
}

func pipelineCmd() *cobra.Command {
	r := sshic.Pipeliner{}
	cmd := &cobra.Command{
		Use:   "pipeline matrixFile",
		Short: "Run filter, coverage, profile, stats, rebin and aggregate sequentially",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.MatrixFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.FragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&r.ChrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().StringVarP(&r.ProbesFile, "probes", "p", "", "capture oligos table")
	cmd.Flags().StringVarP(&r.GroupsFile, "groups", "g", "", "probe groups table")
	cmd.Flags().IntVarP(&r.Flanking, "flanking", "n", sshic.DefaultFlanking, "flanking fragments removed around dsDNA probes")
	cmd.Flags().IntVar(&r.CisRange, "cis-range", sshic.DefaultCisRange, "half-width of the cis window around each probe")
	cmd.Flags().IntSliceVarP(&r.BinSizes, "binsize", "b", nil, "bin widths in bp, repeatable")
	cmd.Flags().IntVar(&r.CenWindow, "cen-window", sshic.DefaultCenWindow, "window half-width around centromeres")
	cmd.Flags().IntVar(&r.TeloWindow, "telo-window", sshic.DefaultTeloWindow, "window half-width around telomeres")
	cmd.Flags().StringSliceVar(&r.ExcludedChrs, "exclude-chr", nil, "chromosomes left out of the aggregation")
	cmd.Flags().IntVarP(&r.Workers, "workers", "w", sshic.DefaultWorkers, "parallel workers over the probe set")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	cmd.MarkFlagRequired("probes")
	return cmd
}

func importPairsCmd() *cobra.Command {
	r := sshic.Importer{}
	var fragmentsFile, chrCoordsFile string
	var minMapQ int
	cmd := &cobra.Command{
		Use:   "importpairs bamFile",
		Short: "Build a sparse contact matrix from a name-sorted BAM of read pairs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.Bamfile = args[0]
			r.MinMapQ = byte(minMapQ)
			r.Genome = sshic.LoadGenome(chrCoordsFile, fragmentsFile)
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&fragmentsFile, "fragments", "f", "", "fragments table from hicstuff")
	cmd.Flags().StringVarP(&chrCoordsFile, "coords", "c", "", "chromosome coordinates table")
	cmd.Flags().IntVarP(&minMapQ, "min-mapq", "q", 30, "minimum mapping quality per mate")
	cmd.MarkFlagRequired("fragments")
	cmd.MarkFlagRequired("coords")
	return cmd
}

func subsampleCmd() *cobra.Command {
	r := sshic.Subsampler{}
	cmd := &cobra.Command{
		Use:   "subsample fastqFile",
		Short: "Subsample a FASTQ file with seqtk and recompress it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.FastqFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().IntVarP(&r.Size, "size", "n", 4000000, "number of reads to keep")
	cmd.Flags().IntVarP(&r.Seed, "seed", "s", 100, "random seed, keep identical across mates")
	cmd.Flags().BoolVarP(&r.Compress, "compress", "z", true, "gzip the output")
	cmd.Flags().BoolVarP(&r.Force, "force", "F", false, "overwrite the output file if it exists")
	cmd.Flags().StringVarP(&r.OutFile, "out", "o", "", "output path")
	return cmd
}

func genomakerCmd() *cobra.Command {
	r := sshic.Genomaker{}
	cmd := &cobra.Command{
		Use:   "genomaker genomeFasta",
		Short: "Append the artificial ssDNA capture chromosome to a genome",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			r.GenomeFile = args[0]
			r.Run()
		},
	}
	cmd.Flags().StringVarP(&r.OligosFile, "oligos", "p", "", "annealing oligos table with sequences")
	cmd.Flags().StringVarP(&r.Enzyme, "enzyme", "e", "", "restriction enzyme recognition sequence")
	cmd.Flags().IntVarP(&r.FragmentSize, "fragment-size", "s", 150, "synthetic fragment size in bp")
	cmd.Flags().IntVarP(&r.LineLength, "line-length", "l", 80, "FASTA line width")
	cmd.Flags().StringVarP(&r.AdditionalFile, "additional", "a", "", "extra FASTA records appended at the end")
	cmd.Flags().StringVarP(&r.OutGenomeFile, "out", "o", "", "output genome FASTA")
	cmd.MarkFlagRequired("oligos")
	cmd.MarkFlagRequired("enzyme")
	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
