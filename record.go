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

	"github.com/agilira/go-errors"
)

// DataRecord is one decoded fixed-duration time slice. Samples holds the
// physical (scaled) values of every channel in declared channel order.
// Records are never mutated after decode.
type DataRecord struct {
	Index   int
	Samples [][]float64
}

// RecordReader yields the data records of an EDF file in order, exactly
// Header.DataRecords long, or until a clean EOF when the count is
// RecordsUnknown. The sequence is single-pass and forward-only; a full
// re-decode requires re-opening the source.
type RecordReader struct {
	br         *bufio.Reader
	hdr        *Header
	recordSize int
	index      int
	buf        []byte
}

// Records positions the source at the first record boundary and returns a
// sequential decoder over the file's data records.
func (er *Reader) Records() (*RecordReader, error) {
	if _, err := er.r.Seek(int64(er.hdr.HeaderBytes), io.SeekStart); err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "seeking to first data record")
	}

	recordSize := er.hdr.recordSize()
	return &RecordReader{
		br:         bufio.NewReader(er.r),
		hdr:        er.hdr,
		recordSize: recordSize,
		buf:        make([]byte, recordSize),
	}, nil
}

// Next decodes the next data record. It returns io.EOF at the expected end
// of the sequence. A file that runs out mid-record, or before the declared
// record count is reached, fails with ErrCodeTruncatedRecord: a cut-off
// recording must never pass as a silent short read.
func (rr *RecordReader) Next() (*DataRecord, error) {
	if rr.hdr.DataRecords != RecordsUnknown && rr.index >= rr.hdr.DataRecords {
		return nil, io.EOF
	}

	n, err := io.ReadFull(rr.br, rr.buf)
	if err == io.EOF {
		if rr.hdr.DataRecords == RecordsUnknown {
			return nil, io.EOF
		}
		return nil, errors.New(ErrCodeTruncatedRecord,
			fmt.Sprintf("file ends after %d of %d data records", rr.index, rr.hdr.DataRecords))
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeTruncatedRecord,
			fmt.Sprintf("data record %d: got %d of %d bytes", rr.index, n, rr.recordSize))
	}

	rec := &DataRecord{
		Index:   rr.index,
		Samples: make([][]float64, len(rr.hdr.Signals)),
	}

	// Within a record each channel's samples are stored contiguously, one
	// channel after another in declared order.
	offset := 0
	for c, sig := range rr.hdr.Signals {
		samples := make([]float64, sig.SamplesPerRecord)
		for s := range samples {
			digital := int16(binary.LittleEndian.Uint16(rr.buf[offset:]))
			samples[s] = digitalToPhysical(digital, sig.DigitalMin, sig.DigitalMax, sig.PhysicalMin, sig.PhysicalMax)
			offset += 2
		}
		rec.Samples[c] = samples
	}

	rr.index++
	return rec, nil
}
