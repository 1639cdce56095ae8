/*
Copyright © 2026 the binned authors.
This file is part of binned.

binned is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

binned is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with binned.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package binnedutil contains the command-line interface to binned.
package binnedutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/binned"
	"github.com/spatialmodel/binned/isin"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log receives log messages from the commands.
var Log = logrus.StandardLogger()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug logging.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "grid.rows",
			usage: `
              grid.rows specifies the number of rows in the ISIN grid the
              archive is binned on.`,
			defaultVal: isin.DefaultRowCount,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "chunksize",
			usage: `
              chunksize specifies how many row ids are read at once while
              indexing the archive.`,
			defaultVal: 50000,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "band",
			usage: `
              band specifies the band to read.`,
			shorthand:  "b",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.Flags(), quicklookCmd.Flags()},
		},
		{
			name: "bands",
			usage: `
              bands specifies the bands to summarize. The default is all
              measurement bands.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "region",
			usage: `
              region specifies the pixels to read as x, y, width and height,
              where pixel (0, 0) is in the north-west corner. Widths and
              heights < 1 extend the region to the edge of the raster.`,
			defaultVal: []int{0, 0, 0, 0},
			flagsets:   []*pflag.FlagSet{readCmd.Flags()},
		},
		{
			name: "valid",
			usage: `
              valid specifies an expression selecting the pixels to include,
              for example "value > 0 && lat > -60". The expression may use
              the variables value, lon and lat.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), quicklookCmd.Flags()},
		},
		{
			name: "out",
			usage: `
              out specifies the output file. The default for read is
              standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.Flags(), quicklookCmd.Flags()},
		},
		{
			name: "legend",
			usage: `
              legend specifies a file to write the colour scale of the
              quicklook to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open specifies whether to open the quicklook in the default
              image viewer.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
		{
			name: "rows",
			usage: `
              rows specifies whether to list the records of every row.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{indexCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BINNED")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			addFlag(set, option.name, option.shorthand, option.usage, option.defaultVal)
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	Root.AddCommand(versionCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(indexCmd)
	Root.AddCommand(readCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(quicklookCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("binned: problem reading configuration file: %v", err)
		}
	}
	if Cfg.GetBool("verbose") {
		Log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// openArchive downloads loc if it is remote and opens it with the
// configured grid.
func openArchive(ctx context.Context, loc string) (*binned.Reader, error) {
	rows := Cfg.GetInt("grid.rows")
	if rows < 1 {
		return nil, fmt.Errorf("binned: grid.rows must be positive, have %d", rows)
	}
	g := isin.Default
	if rows != isin.DefaultRowCount {
		g = isin.NewGrid(rows)
	}
	path, err := maybeDownload(ctx, os.ExpandEnv(loc), Log)
	if err != nil {
		return nil, err
	}
	return binned.Open(path,
		binned.WithGrid(g),
		binned.WithLogger(Log),
		binned.WithChunkSize(Cfg.GetInt("chunksize")),
	)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "binned",
	Short: "A reader for ISIN binned satellite products.",
	Long: `binned reads level-3 binned satellite products stored on the ISIN
sinusoidal grid and resamples them onto equirectangular rasters.
Use the subcommands specified below to access the functionality.

Archive locations may be local paths, http(s) URLs, or blob storage
locations starting with gs://, s3:// or file://. Remote archives are
downloaded to a temporary directory before they are read.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BINNED_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of binned.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("binned v%s\n", binned.Version)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info archive",
	Short: "Describe an archive.",
	Long: `info prints the raster dimensions, geocoding, bands and attributes
of an archive in TOML format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openArchive(context.Background(), args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return WriteInfo(cmd.OutOrStdout(), r)
	},
	DisableAutoGenTag: true,
}

var indexCmd = &cobra.Command{
	Use:   "index archive",
	Short: "Index the rows of an archive.",
	Long: `index builds the row index of an archive and prints the number of
records it found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openArchive(context.Background(), args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		return WriteIndex(cmd.OutOrStdout(), r, Cfg.GetBool("rows"))
	},
	DisableAutoGenTag: true,
}

var readCmd = &cobra.Command{
	Use:   "read archive",
	Short: "Read raw samples of a band.",
	Long: `read resamples a region of one band and writes the raw samples as
an ESRI ASCII grid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region, err := cast.ToIntSliceE(Cfg.Get("region"))
		if err != nil {
			return fmt.Errorf("binned: invalid region: %v", err)
		}
		if len(region) != 4 {
			return fmt.Errorf("binned: region needs 4 values, have %v", region)
		}
		band, err := requireBand()
		if err != nil {
			return err
		}
		r, err := openArchive(context.Background(), args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		reg := binned.NewRegion(region[0], region[1], region[2], region[3])
		if reg.Width < 1 {
			reg.Width = r.Width() - reg.X
		}
		if reg.Height < 1 {
			reg.Height = r.Height() - reg.Y
		}
		write := func(w io.Writer) error {
			return WriteASCIIGrid(context.Background(), w, r, band, reg)
		}
		if out := Cfg.GetString("out"); out != "" {
			return writeFile(os.ExpandEnv(out), write)
		}
		return write(cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats archive",
	Short: "Summarize bands.",
	Long: `stats calculates the range, mean, standard deviation and quantiles
of the geophysical values of bands. Bands are read concurrently.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		// Download once; every band is then read on its own handle.
		path, err := maybeDownload(ctx, os.ExpandEnv(args[0]), Log)
		if err != nil {
			return err
		}
		bands, err := cast.ToStringSliceE(Cfg.Get("bands"))
		if err != nil {
			return err
		}
		bands = expandStringSlice(bands)
		s, err := Stats(ctx, func() (*binned.Reader, error) { return openArchive(ctx, path) },
			bands, Cfg.GetString("valid"))
		if err != nil {
			return err
		}
		return WriteStats(cmd.OutOrStdout(), s)
	},
	DisableAutoGenTag: true,
}

var quicklookCmd = &cobra.Command{
	Use:   "quicklook archive",
	Short: "Render a band as an image.",
	Long: `quicklook renders the geophysical values of one band as a
colour-mapped PNG image and optionally writes its colour scale.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		band, err := requireBand()
		if err != nil {
			return err
		}
		out := os.ExpandEnv(Cfg.GetString("out"))
		if out == "" {
			out = band + ".png"
		}
		r, err := openArchive(context.Background(), args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		q, err := NewQuicklook(context.Background(), r, band, Cfg.GetString("valid"))
		if err != nil {
			return err
		}
		if err := writeFile(out, q.WritePNG); err != nil {
			return err
		}
		if legend := Cfg.GetString("legend"); legend != "" {
			if err := writeFile(os.ExpandEnv(legend), q.WriteLegend); err != nil {
				return err
			}
		}
		Log.WithField("file", out).Info("wrote quicklook")
		if Cfg.GetBool("open") {
			abs, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			return open.Run(abs)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// addFlag defines a flag whose type follows its default value. An empty
// shorthand means the flag has none.
func addFlag(set *pflag.FlagSet, name, shorthand, usage string, def interface{}) {
	switch d := def.(type) {
	case string:
		set.StringP(name, shorthand, d, usage)
	case []string:
		set.StringSliceP(name, shorthand, d, usage)
	case bool:
		set.BoolP(name, shorthand, d, usage)
	case int:
		set.IntP(name, shorthand, d, usage)
	case []int:
		set.IntSliceP(name, shorthand, d, usage)
	default:
		panic(fmt.Sprintf("binnedutil: flag %s has unsupported type %T", name, def))
	}
}

func requireBand() (string, error) {
	band := Cfg.GetString("band")
	if band == "" {
		return "", fmt.Errorf("binned: --band is required")
	}
	return band, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// expandStringSlice splits comma-separated entries, which is how lists
// arrive from environment variables and configuration files.
func expandStringSlice(s []string) []string {
	var o []string
	for _, v := range s {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				o = append(o, p)
			}
		}
	}
	return o
}
