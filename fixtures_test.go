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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/edfconv"
	"github.com/stretchr/testify/require"
)

// twoChannelHeader is the synthetic two-channel EEG recording used across
// the tests: 0.5 s records, 2 samples per record per channel (4 Hz).
func twoChannelHeader() edfconv.Header {
	return edfconv.Header{
		Version:            edfconv.Version0,
		PatientID:          "Patient X",
		RecordingID:        "Recording 1",
		StartTime:          time.Date(2024, 3, 1, 22, 15, 0, 0, time.UTC),
		DataRecordDuration: 500 * time.Millisecond,
		SignalCount:        2,
		Signals: []edfconv.Signal{
			{
				Label:             "EEG1",
				TransducerType:    "AgAgCl electrode",
				PhysicalDimension: "uV",
				PhysicalMin:       -500,
				PhysicalMax:       500,
				DigitalMin:        -2048,
				DigitalMax:        2047,
				SamplesPerRecord:  2,
			},
			{
				Label:             "EEG2",
				TransducerType:    "AgAgCl electrode",
				PhysicalDimension: "uV",
				PhysicalMin:       -500,
				PhysicalMax:       500,
				DigitalMin:        -2048,
				DigitalMax:        2047,
				SamplesPerRecord:  2,
			},
		},
	}
}

// writeTestEDF builds an EDF file from the given header and per-record
// channel samples, returning its path.
func writeTestEDF(t *testing.T, hdr edfconv.Header, records [][][]float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.edf")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)

	ew, err := edfconv.Create(f, hdr)
	require.NoError(t, err)

	for _, record := range records {
		require.NoError(t, ew.WriteRecord(record))
	}

	require.NoError(t, ew.Close())
	require.NoError(t, f.Close())
	return path
}

// patchFile overwrites len(b) bytes at the given offset.
func patchFile(t *testing.T, path string, offset int, b []byte) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(data[offset:], b)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// truncateFile chops n bytes off the end of the file.
func truncateFile(t *testing.T, path string, n int64) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-n))
}

func openTestEDF(t *testing.T, path string) (*os.File, *edfconv.Reader) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	er, err := edfconv.Open(f)
	require.NoError(t, err)
	return f, er
}
