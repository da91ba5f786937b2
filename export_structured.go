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
	"encoding/json"
	"io"
	"time"

	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// structuredDocument is the nested export representation. Decoding it back
// reproduces the same store contents, modulo floating-point text round-trip.
type structuredDocument struct {
	Metadata structuredMetadata  `json:"metadata" yaml:"metadata"`
	Channels []structuredChannel `json:"channels" yaml:"channels"`
}

type structuredMetadata struct {
	PatientID       string    `json:"patient_id" yaml:"patient_id"`
	RecordingID     string    `json:"recording_id" yaml:"recording_id"`
	StartTime       time.Time `json:"start_time" yaml:"start_time"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
	DataRecords     int       `json:"data_records" yaml:"data_records"`
}

type structuredChannel struct {
	Label   string    `json:"label" yaml:"label"`
	Unit    string    `json:"unit" yaml:"unit"`
	Rate    float64   `json:"rate" yaml:"rate"`
	Samples []float64 `json:"samples" yaml:"samples"`
}

// ExportStructured writes the selected channels as a nested key/value
// document. FormatStructured encodes JSON (indented, matching the layout
// analysis pipelines already consume); FormatStructuredYAML encodes YAML.
func ExportStructured(w io.Writer, s *Store, labels []string, format Format) error {
	channels, err := s.Select(labels)
	if err != nil {
		return err
	}

	info := s.Info()
	doc := structuredDocument{
		Metadata: structuredMetadata{
			PatientID:       info.PatientID,
			RecordingID:     info.RecordingID,
			StartTime:       info.StartTime,
			DurationSeconds: info.DurationSeconds,
			DataRecords:     info.DataRecords,
		},
		Channels: make([]structuredChannel, len(channels)),
	}
	for i, ch := range channels {
		doc.Channels[i] = structuredChannel{
			Label:   ch.Label,
			Unit:    ch.Unit,
			Rate:    ch.Rate,
			Samples: ch.Samples,
		}
	}

	switch format {
	case FormatStructuredYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(&doc); err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, "encoding YAML document")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, "closing YAML encoder")
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(&doc); err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, "encoding JSON document")
		}
	}
	return nil
}

// DecodeStructured reads a structured export back into a Store.
func DecodeStructured(r io.Reader, format Format) (*Store, error) {
	var doc structuredDocument
	switch format {
	case FormatStructuredYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "decoding YAML document")
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, errors.Wrap(err, ErrCodeMalformedHeader, "decoding JSON document")
		}
	}

	channels := make([]*ChannelData, len(doc.Channels))
	for i, ch := range doc.Channels {
		channels[i] = &ChannelData{
			Label:   ch.Label,
			Unit:    ch.Unit,
			Rate:    ch.Rate,
			Samples: ch.Samples,
		}
	}

	return newStore(doc.Metadata.PatientID, doc.Metadata.RecordingID,
		doc.Metadata.StartTime, doc.Metadata.DurationSeconds,
		doc.Metadata.DataRecords, channels), nil
}
