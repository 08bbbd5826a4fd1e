// Package ecfile defines the container written by the wav2rans and rans2wav
// tools: the WAV format fields, the histogram CDF, and the rANS payload. The
// entropy coding library itself adds no framing, so the tools wrap its byte
// stream here.
package ecfile

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Signature is present at the beginning of each container file.
const Signature = "rANS"

// A File is a parsed container: enough side information to rebuild the WAV
// header and the CDF, plus the entropy coded sample payload.
type File struct {
	// Sample rate in Hz.
	SampleRate uint32
	// Number of channels.
	NumChans uint16
	// Sample size in bits-per-sample.
	BitDepth uint16
	// CDF precision in bits.
	Precision uint8
	// Offset subtracted from each sample to map it into [0, K).
	Offset int32
	// Quantized CDF over K symbols; K+1 entries.
	CDF []int32
	// Number of encoded samples.
	NumSamples uint32
	// Finalized rANS byte stream.
	Payload []byte
}

// Encode writes the container to w.
func Encode(w io.Writer, f *File) error {
	if _, err := io.WriteString(w, Signature); err != nil {
		return errors.WithStack(err)
	}
	fields := []interface{}{
		f.SampleRate,
		f.NumChans,
		f.BitDepth,
		f.Precision,
		f.Offset,
		uint32(len(f.CDF)),
	}
	for _, field := range fields {
		if err := binary.Write(w, binary.BigEndian, field); err != nil {
			return errors.WithStack(err)
		}
	}
	if err := binary.Write(w, binary.BigEndian, f.CDF); err != nil {
		return errors.WithStack(err)
	}
	if err := binary.Write(w, binary.BigEndian, f.NumSamples); err != nil {
		return errors.WithStack(err)
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(f.Payload))); err != nil {
		return errors.WithStack(err)
	}
	if _, err := w.Write(f.Payload); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Decode parses a container from r.
func Decode(r io.Reader) (*File, error) {
	sig := make([]byte, len(Signature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, errors.WithStack(err)
	}
	if string(sig) != Signature {
		return nil, errors.Errorf("ecfile: invalid signature; expected %q, got %q", Signature, sig)
	}
	f := new(File)
	var ncdf uint32
	fields := []interface{}{
		&f.SampleRate,
		&f.NumChans,
		&f.BitDepth,
		&f.Precision,
		&f.Offset,
		&ncdf,
	}
	for _, field := range fields {
		if err := binary.Read(r, binary.BigEndian, field); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if ncdf < 2 {
		return nil, errors.Errorf("ecfile: CDF holds %d entries, need at least 2", ncdf)
	}
	f.CDF = make([]int32, ncdf)
	if err := binary.Read(r, binary.BigEndian, f.CDF); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := binary.Read(r, binary.BigEndian, &f.NumSamples); err != nil {
		return nil, errors.WithStack(err)
	}
	var nbytes uint32
	if err := binary.Read(r, binary.BigEndian, &nbytes); err != nil {
		return nil, errors.WithStack(err)
	}
	f.Payload = make([]byte, nbytes)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}
