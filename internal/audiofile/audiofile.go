// Package audiofile reads and writes the mono WAV buffers consumed and
// produced by the wavetable pipeline.
//
// Reading supports PCM 16/24/32-bit and IEEE float 32/64-bit sources; only
// the first channel is kept. Writing emits mono IEEE float32 through a
// temporary file, so a failed write never leaves a partial output behind.
package audiofile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

var errMalformed = errors.New("audiofile: malformed WAV file")

// ReadFile decodes a WAV file and returns its first channel as float64
// samples in [-1, 1] along with the sample rate in Hz.
func ReadFile(path string) ([]float64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audiofile: read %s: %w", path, err)
	}

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errMalformed
	}

	var (
		format        uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		haveFmt       bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		if body+size > len(data) {
			return nil, 0, errMalformed
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errMalformed
			}

			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, errMalformed
			}

			samples, err := decodeSamples(data[body:body+size], format, channels, bitsPerSample)
			if err != nil {
				return nil, 0, err
			}

			return samples, int(sampleRate), nil
		}

		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	return nil, 0, errMalformed
}

func decodeSamples(raw []byte, format, channels, bits uint16) ([]float64, error) {
	if channels == 0 {
		return nil, errMalformed
	}

	bytesPerSample := int(bits) / 8
	if bytesPerSample == 0 {
		return nil, errMalformed
	}

	stride := bytesPerSample * int(channels)
	count := len(raw) / stride
	out := make([]float64, count)

	for i := range out {
		p := raw[i*stride:]

		switch {
		case format == formatPCM && bits == 16:
			out[i] = float64(int16(binary.LittleEndian.Uint16(p))) / 32768
		case format == formatPCM && bits == 24:
			v := int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
			if v&0x800000 != 0 {
				v -= 1 << 24
			}

			out[i] = float64(v) / 8388608
		case format == formatPCM && bits == 32:
			out[i] = float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
		case format == formatIEEEFloat && bits == 32:
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
		case format == formatIEEEFloat && bits == 64:
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(p))
		default:
			return nil, fmt.Errorf("audiofile: unsupported format %d with %d bits per sample", format, bits)
		}
	}

	return out, nil
}

// WriteFile encodes samples as a mono IEEE float32 WAV at sampleRate Hz.
// The file is staged next to path and renamed into place on success.
func WriteFile(path string, samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return errors.New("audiofile: no samples to write")
	}

	if sampleRate <= 0 {
		return fmt.Errorf("audiofile: sample rate must be > 0: %d", sampleRate)
	}

	buf := encodeFloat32Mono(samples, sampleRate)

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("audiofile: write %s: %w", path, err)
	}

	_, err = tmp.Write(buf)
	if err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}

	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("audiofile: write %s: %w", path, err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("audiofile: write %s: %w", path, err)
	}

	return nil
}

func encodeFloat32Mono(samples []float64, sampleRate int) []byte {
	const (
		headerSize     = 44
		bytesPerSample = 4
	)

	dataSize := len(samples) * bytesPerSample
	buf := make([]byte, headerSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatIEEEFloat)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*bytesPerSample))
	binary.LittleEndian.PutUint16(buf[32:34], bytesPerSample)
	binary.LittleEndian.PutUint16(buf[34:36], 8*bytesPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		bits := math.Float32bits(float32(s))
		binary.LittleEndian.PutUint32(buf[headerSize+i*bytesPerSample:], bits)
	}

	return buf
}
