package collector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/j-r-jones/sysjitter/internal/core"
)

// RawFileName names the raw file of cpu, zero-padding the CPU number to the
// width of the highest one so that the files sort numerically.
func RawFileName(prefix string, cpu, maxCPU int) string {
	width := len(strconv.Itoa(maxCPU))
	return fmt.Sprintf("%s.%0*d", prefix, width, cpu)
}

// WriteRaw writes every interruption of one thread, in time order or, if
// sorted, by ascending gap. Timestamps are relative to the start of
// sampling.
func WriteRaw(w io.Writer, r core.ThreadResult, thresholdNs uint64, sorted bool) error {
	bw := bufio.NewWriter(w)
	n := len(r.Interruptions)

	fmt.Fprintf(bw, "# cpu_mhz: %d\n", r.MHz)
	fmt.Fprintf(bw, "# threshold: %dns\n", thresholdNs)
	fmt.Fprintf(bw, "# n_interruptions: %d\n", n)
	if n == 0 {
		return bw.Flush()
	}

	runtime := r.Runtime()
	percent := 0.0
	if runtime > 0 {
		percent = 100 * float64(r.Total) / float64(runtime)
	}
	fmt.Fprintf(bw, "# interruption: %f%%\n", percent)
	fmt.Fprintf(bw, "# total_interruption: %d cycles\n", r.Total)
	fmt.Fprintf(bw, "# total_runtime: %d cycles\n", runtime)
	fmt.Fprintf(bw, "# total_interruption: %.9f seconds\n", r.CyclesToSeconds(r.Total))
	fmt.Fprintf(bw, "# total_runtime: %.9f seconds\n", r.CyclesToSeconds(runtime))
	fmt.Fprintln(bw, "#")

	if !sorted {
		fmt.Fprintln(bw, "#      Timestamp      delta   <== interruption =>")
		fmt.Fprintln(bw, "#         (nsec)     (usec)   (cycles)     (nsec)")
		prev := r.Interruptions[0]
		for _, in := range r.Interruptions {
			fmt.Fprintf(bw, "%16d %10d %10d %10d\n",
				r.CyclesToNanos(in.Timestamp-r.Start),
				r.CyclesToMicros(in.Timestamp-prev.Timestamp),
				in.Gap, r.CyclesToNanos(in.Gap))
			prev = in
		}
	} else {
		fmt.Fprintln(bw, "#      Timestamp   <== interruption =>")
		fmt.Fprintln(bw, "#         (nsec)   (cycles)     (nsec)")
		for _, in := range SortedByGap(r.Interruptions) {
			fmt.Fprintf(bw, "%16d %10d %10d\n",
				r.CyclesToNanos(in.Timestamp-r.Start),
				in.Gap, r.CyclesToNanos(in.Gap))
		}
	}
	return bw.Flush()
}

// WriteRawFiles writes one raw file per thread. A file that cannot be
// written does not stop the others; all failures are returned together.
func WriteRawFiles(prefix string, results []core.ThreadResult, thresholdNs uint64, sorted bool) error {
	maxCPU := -1
	for _, r := range results {
		maxCPU = max(maxCPU, r.CPU)
	}

	var errs []error
	for _, r := range results {
		name := RawFileName(prefix, r.CPU, maxCPU)
		if err := writeRawFile(name, r, thresholdNs, sorted); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeRawFile(name string, r core.ThreadResult, thresholdNs uint64, sorted bool) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("could not open %q for writing: %w", name, err)
	}
	if err := WriteRaw(f, r, thresholdNs, sorted); err != nil {
		f.Close()
		return fmt.Errorf("writing %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", name, err)
	}
	return nil
}
