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
	"io"
	"time"
)

// ChannelData is one fully decoded channel: the physical sample sequence
// plus the metadata needed to interpret it.
type ChannelData struct {
	Label   string
	Unit    string
	Rate    float64 // samples per second
	Samples []float64
}

// Times returns the channel's uniformly spaced time axis in seconds,
// starting at 0.0. Channels sampled at different rates carry different
// axes; the store never resamples.
func (c *ChannelData) Times() []float64 {
	times := make([]float64, len(c.Samples))
	if c.Rate <= 0 {
		return times
	}
	for i := range times {
		times[i] = float64(i) / c.Rate
	}
	return times
}

// Store holds the decoded channels of one recording. A Store is owned
// exclusively by the operation that created it and is never shared across
// operations, so no locking is needed.
type Store struct {
	patientID   string
	recordingID string
	startTime   time.Time
	duration    float64 // seconds
	dataRecords int
	channels    []*ChannelData
	byLabel     map[string]*ChannelData
}

// Info summarizes a recording's metadata.
type Info struct {
	PatientID       string
	RecordingID     string
	StartTime       time.Time
	DurationSeconds float64
	DataRecords     int
	ChannelNames    []string
	SampleRates     map[string]float64
}

// ReadStore decodes every data record of r into a Store. Any structural
// error aborts the whole decode; a partial store is never returned.
func ReadStore(er *Reader) (*Store, error) {
	hdr := er.Header()

	channels := make([]*ChannelData, len(hdr.Signals))
	for i, sig := range hdr.Signals {
		var samples []float64
		if hdr.DataRecords > 0 {
			samples = make([]float64, 0, hdr.DataRecords*sig.SamplesPerRecord)
		}
		channels[i] = &ChannelData{
			Label:   sig.Label,
			Unit:    sig.PhysicalDimension,
			Rate:    sig.SampleRate(hdr.DataRecordDuration),
			Samples: samples,
		}
	}

	rr, err := er.Records()
	if err != nil {
		return nil, err
	}

	records := 0
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for c := range channels {
			channels[c].Samples = append(channels[c].Samples, rec.Samples[c]...)
		}
		records++
	}

	return newStore(hdr.PatientID, hdr.RecordingID, hdr.StartTime,
		float64(records)*hdr.DataRecordDuration.Seconds(), records, channels), nil
}

func newStore(patientID, recordingID string, startTime time.Time, duration float64, records int, channels []*ChannelData) *Store {
	byLabel := make(map[string]*ChannelData, len(channels))
	for _, ch := range channels {
		byLabel[ch.Label] = ch
	}
	return &Store{
		patientID:   patientID,
		recordingID: recordingID,
		startTime:   startTime,
		duration:    duration,
		dataRecords: records,
		channels:    channels,
		byLabel:     byLabel,
	}
}

// Channel returns the decoded channel with the given label. Matching is
// exact and case-sensitive; an unknown label fails with
// ErrCodeChannelNotFound.
func (s *Store) Channel(label string) (*ChannelData, error) {
	ch, ok := s.byLabel[label]
	if !ok {
		return nil, channelNotFoundError(label)
	}
	return ch, nil
}

// Channels returns every decoded channel in declared order.
func (s *Store) Channels() []*ChannelData {
	return s.channels
}

// Select resolves a channel subset in the order given. A nil or empty
// selection means every channel. Resolution fails before any export I/O so
// a bad request never produces a partial output file.
func (s *Store) Select(labels []string) ([]*ChannelData, error) {
	if len(labels) == 0 {
		return s.channels, nil
	}
	selected := make([]*ChannelData, 0, len(labels))
	for _, label := range labels {
		ch, err := s.Channel(label)
		if err != nil {
			return nil, err
		}
		selected = append(selected, ch)
	}
	return selected, nil
}

// Info returns the recording summary. It is a pure read over decoded
// metadata: calling it repeatedly yields identical results.
func (s *Store) Info() Info {
	names := make([]string, len(s.channels))
	rates := make(map[string]float64, len(s.channels))
	for i, ch := range s.channels {
		names[i] = ch.Label
		rates[ch.Label] = ch.Rate
	}
	return Info{
		PatientID:       s.patientID,
		RecordingID:     s.recordingID,
		StartTime:       s.startTime,
		DurationSeconds: s.duration,
		DataRecords:     s.dataRecords,
		ChannelNames:    names,
		SampleRates:     rates,
	}
}
