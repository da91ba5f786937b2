// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edfconv_test

import (
	"io"
	"testing"
	"time"

	"github.com/OpenPSG/edfconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsDecode(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	path := writeTestEDF(t, twoChannelHeader(), records)

	_, er := openTestEDF(t, path)

	rr, err := er.Records()
	require.NoError(t, err)

	for i, want := range records {
		rec, err := rr.Next()
		require.NoError(t, err)
		require.Equal(t, i, rec.Index)
		require.Len(t, rec.Samples, 2)

		for c := range want {
			require.Len(t, rec.Samples[c], 2)
			for s := range want[c] {
				assert.InDelta(t, want[c][s], rec.Samples[c][s], 0.25)
			}
		}
	}

	_, err = rr.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestRecordsTruncatedFinalByte(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	path := writeTestEDF(t, twoChannelHeader(), records)

	// Chop a single byte off the final record.
	truncateFile(t, path, 1)

	_, er := openTestEDF(t, path)

	rr, err := er.Records()
	require.NoError(t, err)

	_, err = rr.Next()
	require.NoError(t, err)

	_, err = rr.Next()
	require.ErrorContains(t, err, edfconv.ErrCodeTruncatedRecord)
}

func TestRecordsMissingFinalRecord(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	path := writeTestEDF(t, twoChannelHeader(), records)

	hdr := twoChannelHeader()
	recordSize := 0
	for _, sig := range hdr.Signals {
		recordSize += sig.SamplesPerRecord * 2
	}
	truncateFile(t, path, int64(recordSize))

	_, er := openTestEDF(t, path)

	rr, err := er.Records()
	require.NoError(t, err)

	_, err = rr.Next()
	require.NoError(t, err)

	// The header still declares two records, so ending at a record boundary
	// is truncation rather than a clean EOF.
	_, err = rr.Next()
	require.ErrorContains(t, err, edfconv.ErrCodeTruncatedRecord)
}

func TestRecordsUnknownCount(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	path := writeTestEDF(t, twoChannelHeader(), records)

	// A streaming device never fixes up the record count, leaving the
	// sentinel in place. EOF at a record boundary is then a clean end.
	patchFile(t, path, 236, []byte("-1      "))

	_, er := openTestEDF(t, path)
	require.Equal(t, edfconv.RecordsUnknown, er.Header().DataRecords)

	rr, err := er.Records()
	require.NoError(t, err)

	for range records {
		_, err = rr.Next()
		require.NoError(t, err)
	}

	_, err = rr.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestRecordsScalingLaw(t *testing.T) {
	hdr := edfconv.Header{
		Version:            edfconv.Version0,
		PatientID:          "Patient X",
		RecordingID:        "Recording 1",
		StartTime:          time.Date(2024, 3, 1, 22, 15, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        1,
		Signals: []edfconv.Signal{{
			Label:             "EEG",
			PhysicalDimension: "uV",
			PhysicalMin:       -200,
			PhysicalMax:       200,
			DigitalMin:        -32768,
			DigitalMax:        32767,
			SamplesPerRecord:  3,
		}},
	}
	path := writeTestEDF(t, hdr, [][][]float64{{{0, 0, 0}}})

	// Overwrite the stored digital values directly: 0, the digital maximum,
	// and the digital minimum. The data starts right after the 512-byte
	// header.
	patchFile(t, path, 512, []byte{
		0x00, 0x00, // 0
		0xFF, 0x7F, // 32767
		0x00, 0x80, // -32768
	})

	_, er := openTestEDF(t, path)

	rr, err := er.Records()
	require.NoError(t, err)

	rec, err := rr.Next()
	require.NoError(t, err)
	samples := rec.Samples[0]

	// With an asymmetric digital range, digital zero sits just above
	// physical zero.
	assert.InDelta(t, 0.0, samples[0], 0.01)

	// The range endpoints map exactly.
	assert.Equal(t, 200.0, samples[1])
	assert.Equal(t, -200.0, samples[2])
}
