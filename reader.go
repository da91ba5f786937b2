// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edfconv

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// Reader reads EDF/EDF+ files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open parses the EDF header blocks and positions the reader at the first
// data record boundary. All fields are ASCII, space-padded and fixed-width;
// a numeric field that does not parse, a negative structural count, or an
// invalid calibration range fails with ErrCodeMalformedHeader. A declared
// header length that disagrees with the signal count fails with
// ErrCodeHeaderSizeMismatch.
func Open(r io.ReadSeeker) (*Reader, error) {
	reader := bufio.NewReader(r)

	b := make([]byte, fixedHeaderSize)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading fixed header")
	}

	// Parse fields based on EDF/EDF+ specifications
	hdr := &Header{}
	hdr.Version = Version(strings.TrimSpace(string(b[0:8])))
	hdr.PatientID = strings.TrimSpace(string(b[8:88]))
	hdr.RecordingID = strings.TrimSpace(string(b[88:168]))
	dateStr := strings.TrimSpace(string(b[168:176]))
	timeStr := strings.TrimSpace(string(b[176:184]))

	// Parse start date and time
	startDate, err := time.Parse("02.01.06", dateStr)
	if err != nil {
		return nil, malformedHeaderError("start date", err)
	}
	startTime, err := time.Parse("15.04.05", timeStr)
	if err != nil {
		return nil, malformedHeaderError("start time", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	hdr.HeaderBytes, err = parseIntField(b[184:192], "header bytes")
	if err != nil {
		return nil, err
	}

	hdr.DataRecords, err = parseIntField(b[236:244], "number of data records")
	if err != nil {
		return nil, err
	}
	if hdr.DataRecords < 0 && hdr.DataRecords != RecordsUnknown {
		return nil, malformedHeaderError("number of data records", nil)
	}

	durationSecs, err := parseFloatField(b[244:252], "data record duration")
	if err != nil {
		return nil, err
	}
	if durationSecs <= 0 {
		return nil, malformedHeaderError("data record duration", nil)
	}
	hdr.DataRecordDuration = time.Duration(durationSecs * float64(time.Second))

	hdr.SignalCount, err = parseIntField(b[252:256], "signal count")
	if err != nil {
		return nil, err
	}
	if hdr.SignalCount < 0 {
		return nil, malformedHeaderError("signal count", nil)
	}

	// The declared header length must equal the fixed preamble plus one
	// 256-byte block per signal.
	if want := fixedHeaderSize * (1 + hdr.SignalCount); hdr.HeaderBytes != want {
		return nil, errors.New(ErrCodeHeaderSizeMismatch,
			fmt.Sprintf("header declares %d bytes, %d signals require %d", hdr.HeaderBytes, hdr.SignalCount, want))
	}

	// Read signal headers. Each field is stored as a parallel array across
	// all signals, not interleaved per signal.
	hdr.Signals = make([]Signal, hdr.SignalCount)

	for i := range hdr.Signals {
		b := make([]byte, 16)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading signal labels")
		}

		hdr.Signals[i].Label = strings.TrimSpace(string(b))
	}

	for i := range hdr.Signals {
		b := make([]byte, 80)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading transducer types")
		}

		hdr.Signals[i].TransducerType = strings.TrimSpace(string(b))
	}

	for i := range hdr.Signals {
		b := make([]byte, 8)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading physical dimensions")
		}

		hdr.Signals[i].PhysicalDimension = strings.TrimSpace(string(b))
	}

	for i := range hdr.Signals {
		b := make([]byte, 8)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading physical minimums")
		}

		if hdr.Signals[i].PhysicalMin, err = parseFloatField(b, "physical minimum"); err != nil {
			return nil, err
		}
	}

	for i := range hdr.Signals {
		b := make([]byte, 8)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading physical maximums")
		}

		if hdr.Signals[i].PhysicalMax, err = parseFloatField(b, "physical maximum"); err != nil {
			return nil, err
		}
	}

	for i := range hdr.Signals {
		b := make([]byte, 8)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading digital minimums")
		}

		if hdr.Signals[i].DigitalMin, err = parseIntField(b, "digital minimum"); err != nil {
			return nil, err
		}
	}

	for i := range hdr.Signals {
		b := make([]byte, 8)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading digital maximums")
		}

		if hdr.Signals[i].DigitalMax, err = parseIntField(b, "digital maximum"); err != nil {
			return nil, err
		}
	}

	for i := range hdr.Signals {
		b := make([]byte, 80)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading prefiltering")
		}

		hdr.Signals[i].Prefiltering = strings.TrimSpace(string(b))
	}

	for i := range hdr.Signals {
		b := make([]byte, 8)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading samples per record")
		}

		if hdr.Signals[i].SamplesPerRecord, err = parseIntField(b, "samples per record"); err != nil {
			return nil, err
		}
		if hdr.Signals[i].SamplesPerRecord <= 0 {
			return nil, malformedHeaderError(fmt.Sprintf("samples per record for signal %d", i), nil)
		}
	}

	for i := range hdr.Signals {
		b := make([]byte, 32)
		if _, err := io.ReadFull(reader, b); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "reading reserved fields")
		}

		hdr.Signals[i].Reserved = strings.TrimSpace(string(b))
	}

	// The affine digital-to-physical transform divides by both ranges, so a
	// file declaring an empty or inverted range is malformed.
	for i, sig := range hdr.Signals {
		if sig.PhysicalMax <= sig.PhysicalMin {
			return nil, malformedHeaderError(fmt.Sprintf("physical range of signal %d (%q)", i, sig.Label), nil)
		}
		if sig.DigitalMax <= sig.DigitalMin {
			return nil, malformedHeaderError(fmt.Sprintf("digital range of signal %d (%q)", i, sig.Label), nil)
		}
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() *Header {
	return er.hdr
}

// SignalReader reads continuous signal data from an EDF/EDF+ file.
type SignalReader struct {
	r                io.ReadSeeker
	hdr              *Header
	signalIndex      int // Index of the signal to read
	currentRecord    int // Current record being processed
	currentSample    int // Current sample in the record
	recordSize       int // Total size of one data record
	signalOffset     int // Byte offset of the signal in a record
	samplesPerRecord int // Number of samples per record for the signal
}

// Signal creates a new SignalReader for a specified signal index. This is
// the random-access path for pulling a single channel out of a large file
// without decoding the rest; the sequential path is Records.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, errors.New(ErrCodeChannelNotFound, fmt.Sprintf("signal index %d out of range", signalIndex))
	}

	signal := er.hdr.Signals[signalIndex]
	signalOffset := 0
	for i, sig := range er.hdr.Signals {
		if i < signalIndex {
			signalOffset += sig.SamplesPerRecord * 2
		}
	}

	return &SignalReader{
		r:                er.r,
		hdr:              er.hdr,
		signalIndex:      signalIndex,
		recordSize:       er.hdr.recordSize(),
		signalOffset:     signalOffset,
		samplesPerRecord: signal.SamplesPerRecord,
	}, nil
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	buf := make([]byte, 2)

	n := 0
	for n < len(data) {
		if sr.hdr.DataRecords != RecordsUnknown && sr.currentRecord >= sr.hdr.DataRecords {
			return n, io.EOF // End of data records
		}

		// Calculate position to read the digital sample from
		pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset) + int64(sr.currentSample*2)
		if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
			return n, errors.Wrap(err, ErrCodeIOFailure, "seeking to sample")
		}

		// Read the digital sample
		if _, err := io.ReadFull(sr.r, buf); err != nil {
			if sr.hdr.DataRecords == RecordsUnknown && sr.currentSample == 0 && err == io.EOF {
				return n, io.EOF
			}
			return n, errors.Wrap(err, ErrCodeTruncatedRecord,
				fmt.Sprintf("reading sample %d of record %d", sr.currentSample, sr.currentRecord))
		}
		digitalValue := int16(binary.LittleEndian.Uint16(buf))
		signal := sr.hdr.Signals[sr.signalIndex]
		data[n] = digitalToPhysical(digitalValue, signal.DigitalMin, signal.DigitalMax, signal.PhysicalMin, signal.PhysicalMax)

		n++

		// Move to the next sample
		sr.currentSample++
		if sr.currentSample >= sr.samplesPerRecord {
			sr.currentSample = 0
			sr.currentRecord++
		}
	}

	return n, nil
}

// digitalToPhysical converts a stored digital value to a physical value
// using the signal's own calibration pair. The scale is per channel, never
// global: channels carry heterogeneous units and ranges.
func digitalToPhysical(digital int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func parseFloatField(b []byte, field string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, malformedHeaderError(field, err)
	}
	return f, nil
}

func parseIntField(b []byte, field string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, malformedHeaderError(field, err)
	}
	return i, nil
}
