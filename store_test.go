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
	"testing"

	"github.com/OpenPSG/edfconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestStore(t *testing.T, records [][][]float64) *edfconv.Store {
	t.Helper()

	path := writeTestEDF(t, twoChannelHeader(), records)
	_, er := openTestEDF(t, path)

	store, err := edfconv.ReadStore(er)
	require.NoError(t, err)
	return store
}

func TestReadStore(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	store := readTestStore(t, records)

	channels := store.Channels()
	require.Len(t, channels, 2)

	eeg1, err := store.Channel("EEG1")
	require.NoError(t, err)
	assert.Equal(t, "EEG1", eeg1.Label)
	assert.Equal(t, "uV", eeg1.Unit)
	assert.InDelta(t, 4.0, eeg1.Rate, 1e-12)

	// Samples from consecutive records are concatenated per channel.
	require.Len(t, eeg1.Samples, 4)
	want := []float64{100, -100, 300, -300}
	for i := range want {
		assert.InDelta(t, want[i], eeg1.Samples[i], 0.25)
	}

	// Two 0.5 s records at 4 Hz give evenly spaced timestamps from zero.
	times := eeg1.Times()
	require.Len(t, times, 4)
	wantTimes := []float64{0, 0.25, 0.5, 0.75}
	for i := range wantTimes {
		assert.InDelta(t, wantTimes[i], times[i], 1e-12)
	}
}

func TestStoreChannelNotFound(t *testing.T) {
	store := readTestStore(t, nil)

	_, err := store.Channel("NOPE")
	require.ErrorContains(t, err, edfconv.ErrCodeChannelNotFound)
	assert.ErrorContains(t, err, "NOPE")

	// Matching is case-sensitive.
	_, err = store.Channel("eeg1")
	require.ErrorContains(t, err, edfconv.ErrCodeChannelNotFound)
}

func TestStoreSelect(t *testing.T) {
	store := readTestStore(t, nil)

	// An empty selection means every channel, in declared order.
	channels, err := store.Select(nil)
	require.NoError(t, err)
	require.Len(t, channels, 2)

	// An explicit selection preserves the requested order.
	channels, err = store.Select([]string{"EEG2", "EEG1"})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "EEG2", channels[0].Label)
	assert.Equal(t, "EEG1", channels[1].Label)

	// One unknown label fails the whole selection.
	_, err = store.Select([]string{"EEG1", "NOPE"})
	require.ErrorContains(t, err, edfconv.ErrCodeChannelNotFound)
}

func TestStoreInfoIdempotent(t *testing.T) {
	records := [][][]float64{
		{{100, -100}, {200, -200}},
		{{300, -300}, {400, -400}},
	}
	store := readTestStore(t, records)

	info := store.Info()
	assert.Equal(t, "Patient X", info.PatientID)
	assert.Equal(t, "Recording 1", info.RecordingID)
	assert.InDelta(t, 1.0, info.DurationSeconds, 1e-12)
	assert.Equal(t, 2, info.DataRecords)
	assert.Equal(t, []string{"EEG1", "EEG2"}, info.ChannelNames)
	assert.InDelta(t, 4.0, info.SampleRates["EEG1"], 1e-12)

	require.Equal(t, info, store.Info())
}

func TestStoreMixedRates(t *testing.T) {
	hdr := twoChannelHeader()
	hdr.Signals[1].Label = "Temp"
	hdr.Signals[1].PhysicalDimension = "degC"
	hdr.Signals[1].SamplesPerRecord = 1

	records := [][][]float64{
		{{100, -100}, {36}},
		{{300, -300}, {37}},
	}
	path := writeTestEDF(t, hdr, records)
	_, er := openTestEDF(t, path)

	store, err := edfconv.ReadStore(er)
	require.NoError(t, err)

	eeg, err := store.Channel("EEG1")
	require.NoError(t, err)
	temp, err := store.Channel("Temp")
	require.NoError(t, err)

	// Each channel carries its own rate and time axis; the store never
	// resamples.
	assert.InDelta(t, 4.0, eeg.Rate, 1e-12)
	assert.InDelta(t, 2.0, temp.Rate, 1e-12)
	require.Len(t, eeg.Samples, 4)
	require.Len(t, temp.Samples, 2)
	assert.InDelta(t, 0.5, temp.Times()[1], 1e-12)
}
