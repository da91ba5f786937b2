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
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPSG/edfconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterRoundTrip(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	path := writeTestEDF(t, twoChannelHeader(), records)

	_, er := openTestEDF(t, path)
	hdr := er.Header()

	// Close fixed up the record count written as the unknown sentinel.
	assert.Equal(t, 2, hdr.DataRecords)
	assert.Equal(t, 500*time.Millisecond, hdr.DataRecordDuration)

	store, err := edfconv.ReadStore(er)
	require.NoError(t, err)

	eeg2, err := store.Channel("EEG2")
	require.NoError(t, err)
	want := []float64{200, -200, 400, -400}
	require.Len(t, eeg2.Samples, len(want))
	for i := range want {
		assert.InDelta(t, want[i], eeg2.Samples[i], 0.25)
	}
}

func TestCreateRejectsInvalidHeader(t *testing.T) {
	var buf writeSeekBuffer

	hdr := twoChannelHeader()
	hdr.DataRecordDuration = 0
	_, err := edfconv.Create(&buf, hdr)
	require.ErrorContains(t, err, edfconv.ErrCodeMalformedHeader)

	hdr = twoChannelHeader()
	hdr.Signals[0].PhysicalMax = hdr.Signals[0].PhysicalMin
	_, err = edfconv.Create(&buf, hdr)
	require.ErrorContains(t, err, edfconv.ErrCodeMalformedHeader)
	assert.ErrorContains(t, err, "calibration")
}

func TestWriteRecordSignalCountMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.edf")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	ew, err := edfconv.Create(f, twoChannelHeader())
	require.NoError(t, err)

	err = ew.WriteRecord([][]float64{{100, -100}})
	require.ErrorContains(t, err, edfconv.ErrCodeIncompatibleChannels)
}

func TestWriterFractionalDuration(t *testing.T) {
	// Sub-second record durations must survive the 8-byte ASCII field.
	path := writeTestEDF(t, twoChannelHeader(), nil)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.5     ", string(data[244:252]))

	_, er := openTestEDF(t, path)
	assert.Equal(t, 500*time.Millisecond, er.Header().DataRecordDuration)
}

// writeSeekBuffer is an in-memory io.WriteSeeker for writer error cases that
// never reach the data records.
type writeSeekBuffer struct {
	buf bytes.Buffer
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	return offset, nil
}
