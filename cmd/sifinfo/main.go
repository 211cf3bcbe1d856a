// Command sifinfo prints the header of one or more SIF files and, on request,
// per-frame statistics and the wavelength axis.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/robert-malhotra/go-sif/sif"
)

type config struct {
	stats bool
	axis  bool
	frame int
	jobs  int
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("sifinfo: ")

	var cfg config
	flag.BoolVar(&cfg.stats, "stats", false, "Print min/max/mean/stddev for each frame")
	flag.BoolVar(&cfg.axis, "axis", false, "Print the wavelength axis")
	flag.IntVar(&cfg.frame, "frame", -1, "Only report statistics for this frame (-1 for all)")
	flag.IntVar(&cfg.jobs, "j", runtime.NumCPU(), "Number of files inspected concurrently")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: sifinfo [flags] <file.sif>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(os.Stdout, cfg, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

// run reports on every path, writing reports in argument order. Files are
// inspected concurrently; the first failure is returned after all reports
// that completed have been written.
func run(w io.Writer, cfg config, paths []string) error {
	reports := make([]bytes.Buffer, len(paths))

	var g errgroup.Group
	if cfg.jobs > 0 {
		g.SetLimit(cfg.jobs)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := report(&reports[i], cfg, path); err != nil {
				log.Printf("%s: %v", path, err)
				return err
			}
			return nil
		})
	}
	err := g.Wait()

	for i := range reports {
		if _, werr := reports[i].WriteTo(w); werr != nil {
			return werr
		}
	}
	return err
}

func report(w io.Writer, cfg config, path string) error {
	f, err := sif.Open(path)
	if err != nil {
		return err
	}
	h := f.Header()

	fmt.Fprintf(w, "=== %s ===\n\n", path)
	fmt.Fprint(w, h.String())
	fmt.Fprintf(w, "Payload: %d frame(s) of %dx%d, %s of %s\n",
		h.StackSize, h.Width, h.Height,
		humanize.Bytes(uint64(h.DataSize)), humanize.Bytes(uint64(h.FileSize)))

	if cfg.axis {
		fmt.Fprintln(w, "\nWavelength axis:")
		for i, v := range h.WavelengthAxis {
			fmt.Fprintf(w, "  %5d  %.4f\n", h.Crop.Left+i, v)
		}
	}

	if cfg.stats {
		fmt.Fprintln(w, "\nFrame statistics:")
		if err := frameStats(w, f, cfg.frame); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

func frameStats(w io.Writer, f *sif.File, only int) error {
	if only >= 0 {
		frame, err := f.ReadFrame(only)
		if err != nil {
			return err
		}
		writeStats(w, only, frame)
		return nil
	}

	stack, err := f.ReadAll()
	if err != nil {
		return err
	}
	for k := 0; k < stack.Frames; k++ {
		writeStats(w, k, stack.Frame(k))
	}
	return nil
}

// Summary holds the statistics printed for one frame.
type Summary struct {
	Min, Max     float64
	Mean, StdDev float64
}

func summarize(frame *sif.Frame) Summary {
	vals := make([]float64, len(frame.Data))
	for i, v := range frame.Data {
		vals[i] = float64(v)
	}
	var s Summary
	if len(vals) == 0 {
		return s
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	return s
}

func writeStats(w io.Writer, k int, frame *sif.Frame) {
	s := summarize(frame)
	fmt.Fprintf(w, "  frame %-4d min %-12g max %-12g mean %-12g stddev %g\n", k, s.Min, s.Max, s.Mean, s.StdDev)
}
