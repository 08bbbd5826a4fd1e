// rans2wav is a tool which expands files produced by wav2rans back to WAV.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"
	"github.com/tongdaxu/yaecl"
	"github.com/tongdaxu/yaecl/internal/ecfile"
)

// flagForce specifies if file overwriting should be forced, when a WAV file
// of the same name already exists.
var flagForce bool

func init() {
	flag.BoolVar(&flagForce, "f", false, "force overwrite")
}

func main() {
	flag.Parse()
	for _, ecPath := range flag.Args() {
		if err := rans2wav(ecPath, flagForce); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

func rans2wav(ecPath string, force bool) error {
	// Parse the container.
	r, err := os.Open(ecPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()
	f, err := ecfile.Decode(r)
	if err != nil {
		return err
	}

	// Entropy decode the samples. wav2rans pushed them in reverse, so pops
	// arrive in stream order.
	codec, err := yaecl.NewRANSDecoder(f.Payload)
	if err != nil {
		return errors.WithStack(err)
	}
	k := int32(len(f.CDF) - 1)
	syms := make([]int32, f.NumSamples)
	if err := codec.DecodeNx1(k, f.CDF, f.Precision, syms); err != nil {
		return errors.WithStack(err)
	}

	// Store the WAV file.
	wavPath := pathutil.TrimExt(ecPath) + ".wav"
	if !force && osutil.Exists(wavPath) {
		return errors.Errorf("WAV file %q already present; use -f flag to force overwrite", wavPath)
	}
	w, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()
	enc := wav.NewEncoder(w, int(f.SampleRate), int(f.BitDepth), int(f.NumChans), 1)
	data := make([]int, len(syms))
	for i, sym := range syms {
		data[i] = int(sym + f.Offset)
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(f.NumChans),
			SampleRate:  int(f.SampleRate),
		},
		Data:           data,
		SourceBitDepth: int(f.BitDepth),
	}
	if err := enc.Write(buf); err != nil {
		return errors.WithStack(err)
	}
	if err := enc.Close(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
