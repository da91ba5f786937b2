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
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes returned by the decoder, the store and the export adapters.
// Decode-time structural errors abort the whole operation: EDF metadata is
// small and foundational, so a partially decoded store is never exposed.
const (
	ErrCodeMalformedHeader      = "EDF_MALFORMED_HEADER"
	ErrCodeHeaderSizeMismatch   = "EDF_HEADER_SIZE_MISMATCH"
	ErrCodeTruncatedRecord      = "EDF_TRUNCATED_RECORD"
	ErrCodeChannelNotFound      = "EDF_CHANNEL_NOT_FOUND"
	ErrCodeIncompatibleChannels = "EDF_INCOMPATIBLE_CHANNELS"
	ErrCodeIOFailure            = "EDF_IO_FAILURE"
)

// malformedHeaderError reports a header field that could not be parsed or
// violates a structural invariant.
func malformedHeaderError(field string, err error) error {
	if err != nil {
		return errors.Wrap(err, ErrCodeMalformedHeader, fmt.Sprintf("invalid header field %q", field))
	}
	return errors.New(ErrCodeMalformedHeader, fmt.Sprintf("invalid header field %q", field))
}

// channelNotFoundError reports a channel label with no matching signal
// header. Matching is exact and case-sensitive.
func channelNotFoundError(label string) error {
	return errors.New(ErrCodeChannelNotFound, fmt.Sprintf("channel %q not found", label))
}
