// wav2rans is a tool which losslessly compresses the PCM samples of WAV
// files with the rANS entropy coder, against a static CDF quantized from the
// sample histogram.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
	"github.com/tongdaxu/yaecl"
	"github.com/tongdaxu/yaecl/internal/ecfile"
)

// flagForce specifies if file overwriting should be forced, when an output
// file of the same name already exists.
var flagForce bool

func init() {
	flag.BoolVar(&flagForce, "f", false, "force overwrite")
}

func main() {
	flag.Parse()
	for _, wavPath := range flag.Args() {
		if err := wav2rans(wavPath, flagForce); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func wav2rans(wavPath string, force bool) error {
	// Decode WAV samples.
	r, err := os.Open(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return errors.Errorf("invalid WAV file %q", wavPath)
	}
	sampleRate, nchannels, bps := dec.SampleRate, dec.NumChans, dec.BitDepth
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return errors.WithStack(err)
	}
	samples := buf.Data
	if len(samples) == 0 {
		return errors.Errorf("WAV file %q holds no samples", wavPath)
	}

	// Map samples onto a dense alphabet [0, K) and build the CDF from their
	// histogram.
	min, max := samples[0], samples[0]
	for _, sample := range samples {
		if sample < min {
			min = sample
		}
		if sample > max {
			max = sample
		}
	}
	k := max - min + 1
	if k > 1<<yaecl.PrecisionMax {
		return errors.Errorf("sample range %d of %q exceeds the %d-symbol alphabet limit", k, wavPath, 1<<yaecl.PrecisionMax)
	}
	hist := make([]int64, k)
	for _, sample := range samples {
		hist[sample-min]++
	}
	cdf, err := yaecl.BuildCDF(hist, yaecl.PrecisionMax)
	if err != nil {
		return errors.WithStack(err)
	}

	// Entropy code the samples. They are pushed in reverse so the LIFO
	// decoder pops them back in stream order.
	syms := make([]int32, len(samples))
	for i, sample := range samples {
		syms[len(samples)-1-i] = int32(sample - min)
	}
	codec := yaecl.NewRANSCodec()
	if err := codec.EncodeNx1(syms, cdf, yaecl.PrecisionMax); err != nil {
		return errors.WithStack(err)
	}
	if err := codec.Flush(); err != nil {
		return errors.WithStack(err)
	}

	// Store the container.
	ecPath := pathutil.TrimExt(wavPath) + ".ec"
	if !force && osutil.Exists(ecPath) {
		return errors.Errorf("output file %q already present; use -f flag to force overwrite", ecPath)
	}
	w, err := os.Create(ecPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()
	f := &ecfile.File{
		SampleRate: sampleRate,
		NumChans:   nchannels,
		BitDepth:   bps,
		Precision:  yaecl.PrecisionMax,
		Offset:     int32(min),
		CDF:        cdf,
		NumSamples: uint32(len(samples)),
		Payload:    codec.BitStream(),
	}
	if err := ecfile.Encode(w, f); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
