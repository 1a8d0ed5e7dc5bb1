// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"
)

// Name of the reference mass table that is used when none is specified.
// It is searched in the directory of the executable.
const defaultRefName = "EMDTB.csv"

const (
	defaultMinPeak   = 5000.0
	defaultMaxDiff   = 0.003
	defaultMassRange = "50:1000"
)

var ErrRangeSpec = errors.New("invalid range specified")

// Command line parameters. Fields with a yaml tag can also be
// set from a parameter file.
type params struct {
	MinPeak    float64  `yaml:"min_peak_size"`
	MaxDiff    float64  `yaml:"max_mz_difference"`
	MassRange  string   `yaml:"mass_range"`
	Offset     *float64 `yaml:"ionization_offset"`
	Reference  string   `yaml:"reference"`
	Data       string   `yaml:"data"`
	IDColumn   string   `yaml:"id_column"`
	MassColumn string   `yaml:"mass_column"`

	out        string
	paramFile  string
	offsetFlag float64
	quiet      bool
	verbose    bool
	verbosity  int
	massMin    float64
	massMax    float64
}

// addFlags binds the annotation parameters to flags, with their defaults
func (par *params) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&par.out, "out", "o", "",
		"output file (default <batch-id>.csv), extension .db or .sqlite writes an SQLite database")
	fs.StringVar(&par.Data, "data", ".", "directory containing a sub directory with sample files per batch")
	fs.StringVar(&par.Reference, "ref", "", "CSV file with reference masses (default "+defaultRefName+" in the program directory)")
	fs.StringVar(&par.paramFile, "params", "", "YAML file with parameters, flags on the command line take precedence")
	fs.Float64Var(&par.MinPeak, "minpeak", defaultMinPeak, "minimum intensity of peaks")
	fs.Float64Var(&par.MaxDiff, "maxdiff", defaultMaxDiff, "maximum mass difference between compound and peak")
	fs.StringVar(&par.MassRange, "mass-range", defaultMassRange, "mass range `min:max` of candidate compounds (exclusive)")
	fs.Float64Var(&par.offsetFlag, "offset", 0, "ionization mass offset (default: mass in first row of the reference table)")
	fs.StringVar(&par.IDColumn, "id-column", "", "reference column with compound identifiers (default: row index)")
	fs.StringVar(&par.MassColumn, "mass-column", "mass", "reference column with compound masses")
	fs.BoolVarP(&par.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&par.verbose, "verbose", "v", false, "show timing of each step")
}

// readParamFile reads parameters from a YAML file. Values of flags that
// were set on the command line are restored afterwards.
func (par *params) readParamFile(fs *pflag.FlagSet) error {
	if par.paramFile == "" {
		return nil
	}
	data, err := os.ReadFile(par.paramFile)
	if err != nil {
		return fmt.Errorf("could not read parameter file: %w", err)
	}
	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})
	if err := yaml.UnmarshalStrict(data, par); err != nil {
		return fmt.Errorf("could not parse parameter file %s: %w", par.paramFile, err)
	}
	for name, v := range changed {
		if err := fs.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// sanitize checks the parameters and fills in derived values
func (par *params) sanitize(fs *pflag.FlagSet, batch string) error {
	if err := par.readParamFile(fs); err != nil {
		return err
	}
	if fs.Changed("offset") {
		offset := par.offsetFlag
		par.Offset = &offset
	}
	switch {
	case par.quiet && par.verbose:
		return errors.New("--quiet and --verbose are mutually exclusive")
	case par.quiet:
		par.verbosity = infoSilent
	case par.verbose:
		par.verbosity = infoVerbose
	default:
		par.verbosity = infoDefault
	}
	if par.MinPeak < 0 || math.IsNaN(par.MinPeak) {
		return fmt.Errorf("invalid minimum peak intensity %v", par.MinPeak)
	}
	if par.MaxDiff < 0 || math.IsNaN(par.MaxDiff) {
		return fmt.Errorf("invalid maximum mass difference %v", par.MaxDiff)
	}
	var err error
	par.massMin, par.massMax, err = parseFloat64Range(par.MassRange,
		-math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return fmt.Errorf("mass range %q: %w", par.MassRange, err)
	}
	if par.Reference == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("cannot locate default reference masses: %w", err)
		}
		par.Reference = filepath.Join(filepath.Dir(exe), defaultRefName)
	}
	if par.out == "" {
		par.out = batch + ".csv"
	}
	return nil
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned.
// An empty string selects the default range.
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	if strings.TrimSpace(r) == "" {
		return min, max, nil
	}
	re := regexp.MustCompile(`^\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)\s*$`)
	m := re.FindStringSubmatch(r)
	if m == nil {
		return min, max, ErrRangeSpec
	}
	minOut := min
	maxOut := max
	var err error
	if m[1] != "" {
		if minOut, err = strconv.ParseFloat(m[1], 64); err != nil {
			return min, max, fmt.Errorf("%w: %v", ErrRangeSpec, err)
		}
		if minOut < min {
			minOut = min
		}
	}
	if m[3] != "" {
		if maxOut, err = strconv.ParseFloat(m[3], 64); err != nil {
			return min, max, fmt.Errorf("%w: %v", ErrRangeSpec, err)
		}
		if maxOut > max {
			maxOut = max
		}
	}
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}
