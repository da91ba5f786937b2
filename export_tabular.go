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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/agilira/go-errors"
)

// ExportTabular writes the selected channels as comma-separated text: a
// header row "time,<ch1>,<ch2>,...", then one row per time index.
//
// Tabular output needs a single shared time axis. Channels sampled at
// different rates are rejected with ErrCodeIncompatibleChannels rather than
// silently resampled; re-gridding heterogeneous channels is an analysis
// decision that belongs to the caller.
func ExportTabular(w io.Writer, s *Store, labels []string) error {
	channels, err := s.Select(labels)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return errors.New(ErrCodeIncompatibleChannels, "no channels to export")
	}

	rate := channels[0].Rate
	count := len(channels[0].Samples)
	for _, ch := range channels[1:] {
		if ch.Rate != rate || len(ch.Samples) != count {
			return errors.New(ErrCodeIncompatibleChannels,
				fmt.Sprintf("channel %q (%g Hz) does not share the time axis of %q (%g Hz)",
					ch.Label, ch.Rate, channels[0].Label, rate))
		}
	}

	cw := csv.NewWriter(w)

	header := make([]string, 0, len(channels)+1)
	header = append(header, "time")
	for _, ch := range channels {
		header = append(header, ch.Label)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "writing tabular header")
	}

	times := channels[0].Times()
	row := make([]string, len(channels)+1)
	for i := 0; i < count; i++ {
		row[0] = strconv.FormatFloat(times[i], 'g', -1, 64)
		for c, ch := range channels {
			row[c+1] = strconv.FormatFloat(ch.Samples[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, "writing tabular row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "flushing tabular output")
	}
	return nil
}
