// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/524D/fiannotate/internal/fia"
	"github.com/524D/fiannotate/internal/mzml"
	"github.com/524D/fiannotate/internal/output"
	"github.com/524D/fiannotate/internal/profiles"
	"github.com/524D/fiannotate/internal/reference"
	"github.com/spf13/cobra"
)

// Program name and version, appended to software list in mzML output
const progName = "fiannotate"

var progVersion = `Unknown`

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Data processing step added to mzML files created by convert
var convertProcessing = mzml.DataProcessing{
	ID: progName,
	ProcessingMeth: []mzml.ProcessingMethod{
		{
			Count:       0,
			SoftwareRef: progName,
			CvPar: []mzml.CVParam{
				{
					CvRef:     "MS",
					Accession: `MS:1000530`,
					Name:      `file format conversion`,
				},
			},
		},
	},
}

func newRootCmd() *cobra.Command {
	var par params
	cmd := &cobra.Command{
		Use:   progName + " [flags] <batch-id>",
		Short: "Annotate flow injection analysis samples with reference compounds",
		Long: `fiannotate annotates the flow injection analysis (FIA) profiles of all
samples in a batch with the compounds of a reference mass table.

Peaks are detected in the profile of each sample and matched to the reference
compounds within a maximum mass difference. Compounds that are found in at
least one sample are written to a compound x sample intensity table. For
samples where a compound was not found, the profile intensity at the median
matched mass is used.

The batch is a directory (below --data) with one file per sample: mzML
(first MS1 spectrum) or text with m/z and intensity columns.

Examples:
  # Annotate batch EXP-1, write EXP-1.csv
  fiannotate --data /data/fia EXP-1

  # Use parameters from a file, but a different peak threshold
  fiannotate --params fia.yaml --minpeak 10000 -o EXP-1.db EXP-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := args[0]
			if err := par.sanitize(cmd.Flags(), batch); err != nil {
				return err
			}
			return annotateBatch(par, batch, cmd.ErrOrStderr())
		},
	}
	par.addFlags(cmd.Flags())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", progName, progVersion)
		},
	})
	return cmd
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <profile.txt> <profile.mzML>",
		Short: "Convert a text profile to mzML",
		Long: `Convert a profile stored as text (m/z and intensity columns) to an mzML
file with a single MS1 profile spectrum.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertProfile(args[0], args[1])
		},
	}
}

// annotateBatch glues together all the steps of the annotation:
// Read reference masses
// Read the profile of each sample in the batch
// Detect peaks, match compounds and create the intensity matrix
// Write the result table
func annotateBatch(par params, batch string, stderr io.Writer) error {
	t := time.Now()
	if par.verbosity == infoVerbose {
		fmt.Fprintf(stderr, "Reading reference masses from %s: ", par.Reference)
	}
	ref, err := reference.LoadFile(par.Reference, reference.Options{
		MassColumn: par.MassColumn,
		IDColumn:   par.IDColumn,
	})
	if err != nil {
		return err
	}
	var offset float64
	if par.Offset != nil {
		offset = *par.Offset
	} else if offset, err = ref.Offset(); err != nil {
		return err
	}
	cands := ref.Candidates(par.massMin, par.massMax)

	if par.verbosity == infoVerbose {
		fmt.Fprintf(stderr, "%s\n", time.Since(t))
		fmt.Fprintf(stderr, "Candidate compounds: %d, ionization offset: %v\n", len(cands), offset)
		t = time.Now()
		fmt.Fprintf(stderr, "Reading profiles of batch %s: ", batch)
	}

	provider := profiles.Dir{Root: par.Data}
	samples, err := provider.Profiles(batch)
	if err != nil {
		return err
	}

	if par.verbosity == infoVerbose {
		fmt.Fprintf(stderr, "%s\n", time.Since(t))
		t = time.Now()
	}

	var progress fia.ProgressFunc
	var bars *progressBars
	if par.verbosity != infoSilent {
		bars = newProgressBars(stderr)
		progress = bars.update
	}
	res, err := fia.Annotate(samples, cands, fia.Params{
		MinPeak: par.MinPeak,
		MaxDiff: par.MaxDiff,
		Offset:  offset,
	}, progress)
	if bars != nil {
		bars.finish()
	}
	if err != nil {
		return err
	}

	if par.verbosity == infoVerbose {
		fmt.Fprintf(stderr, "Annotation: %s\n", time.Since(t))
		t = time.Now()
		fmt.Fprintf(stderr, "Writing %s: ", par.out)
	}

	err = output.Save(par.out, &output.Table{
		IDHeader:  ref.IDHeader,
		Header:    ref.Header,
		MassIndex: ref.MassIndex,
		Result:    res,
	})
	if err != nil {
		return err
	}

	if par.verbosity == infoVerbose {
		fmt.Fprintf(stderr, "%s\n", time.Since(t))
	}
	if par.verbosity != infoSilent {
		fmt.Fprintf(stderr, "Samples: %d Compounds found: %d of %d\n",
			len(res.Samples), len(res.Compounds), len(cands))
	}
	return nil
}

// convertProfile writes a text profile as mzML
func convertProfile(in, out string) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()
	p, err := profiles.ReadText(f)
	if err == nil {
		err = profiles.Validate(p)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	mzML := mzml.New(profiles.SampleID(in))
	peaks := make([]mzml.Peak, len(p))
	for i, pt := range p {
		peaks[i] = mzml.Peak{Mz: pt.Mz, Intens: pt.Intens}
	}
	if _, err := mzML.AppendSpectrum("scan=1", peaks, 1, false); err != nil {
		return err
	}
	mzML.AppendSoftwareInfo(progName, progVersion)
	mzML.AppendDataProcessing(convertProcessing)

	w, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := mzML.Write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
