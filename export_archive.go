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
	"archive/zip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/agilira/go-errors"
)

// ExportArchive writes the selected channels as a compressed ZIP archive
// holding one NumPy ".npy" array per channel plus a "metadata.json" entry.
// Samples are stored as little-endian float64 ("<f8"), preserving the full
// precision of the decoded values, and the layout matches what
// numpy.savez_compressed produces so the archive loads directly into NumPy.
func ExportArchive(w io.Writer, s *Store, labels []string) error {
	channels, err := s.Select(labels)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	for _, ch := range channels {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:   ch.Label + ".npy",
			Method: zip.Deflate,
		})
		if err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, fmt.Sprintf("creating archive entry for %q", ch.Label))
		}
		if err := writeNPY(entry, ch.Samples); err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, fmt.Sprintf("writing samples for %q", ch.Label))
		}
	}

	meta, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "metadata.json",
		Method: zip.Deflate,
	})
	if err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "creating metadata entry")
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
		// Samples live in the per-channel array entries; the metadata
		// record carries labels, units and rates only.
		doc.Channels[i] = structuredChannel{Label: ch.Label, Unit: ch.Unit, Rate: ch.Rate}
	}
	enc := json.NewEncoder(meta)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "encoding archive metadata")
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "finalizing archive")
	}
	return nil
}

// writeNPY writes a one-dimensional float64 array in NumPy NPY format
// version 1.0: magic, header length, a Python-dict header padded to a
// 64-byte boundary, then the raw little-endian values.
func writeNPY(w io.Writer, data []float64) error {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d,), }", len(data))

	// Preamble is 10 bytes (magic + version + header length); the header
	// must end in a newline and pad the total to a multiple of 64.
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write([]byte("\x93NUMPY\x01\x00")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := w.Write([]byte(header)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}
