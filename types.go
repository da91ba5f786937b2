// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edfconv

import "time"

type Version string

const (
	// Version0 represents the version of the EDF/EDF+ standard.
	Version0 Version = "0"
)

const (
	// RecordsUnknown is the EDF sentinel for an unknown number of data
	// records, used by devices that stream until powered off.
	RecordsUnknown = -1

	// fixedHeaderSize is the size of the fixed preamble; each signal adds
	// another 256 bytes (16+80+8+8+8+8+8+80+8+32) of parallel-array fields.
	fixedHeaderSize = 256
)

// Header represents the EDF/EDF+ file header.
type Header struct {
	Version            Version       // Version of the EDF/EDF+ standard (usually "0")
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, RecordsUnknown if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// Signal represents the characteristics of each signal in the EDF/EDF+ file.
type Signal struct {
	Label             string  // Label of the signal (e.g., EEG Fpz-Cz)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., uV, mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}

// SampleRate returns the signal's sampling rate in Hz for the given data
// record duration. Rates are per signal: EDF files routinely mix, say, a
// 256 Hz EEG channel with a 1 Hz body-temperature channel.
func (s Signal) SampleRate(recordDuration time.Duration) float64 {
	if recordDuration <= 0 {
		return 0
	}
	return float64(s.SamplesPerRecord) / recordDuration.Seconds()
}

// recordSize returns the byte size of one complete data record.
func (hdr *Header) recordSize() int {
	size := 0
	for _, sig := range hdr.Signals {
		size += sig.SamplesPerRecord * 2
	}
	return size
}
