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
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/agilira/go-timecache"
)

// JournalEntry is one recorded top-level operation. Entries carry a SHA-256
// checksum over their identifying fields so tampering with a persisted
// journal is detectable.
type JournalEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Operation   string    `json:"operation"`
	Source      string    `json:"source"`
	Destination string    `json:"destination,omitempty"`
	Format      string    `json:"format,omitempty"`
	Channels    []string  `json:"channels,omitempty"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	Checksum    string    `json:"checksum"`
}

// Journal records conversion and inspection operations to a pluggable
// backend: SQLite when the path ends in ".db", an append-only JSONL file
// otherwise. Recording is best-effort bookkeeping; callers must not let a
// journal failure abort a conversion that already succeeded.
type Journal struct {
	backend journalBackend
}

// OpenJournal opens or creates a journal at the given path.
func OpenJournal(path string) (*Journal, error) {
	backend, err := openJournalBackend(path)
	if err != nil {
		return nil, err
	}
	return &Journal{backend: backend}, nil
}

// Record persists one operation outcome.
func (j *Journal) Record(operation string, req ConversionRequest, opErr error) error {
	entry := JournalEntry{
		// Cached clock: journal timestamps don't need nanosecond freshness.
		Timestamp:   timecache.CachedTime(),
		Operation:   operation,
		Source:      req.Source,
		Destination: req.Destination,
		Format:      req.Format.String(),
		Channels:    req.Channels,
		Status:      "ok",
	}
	if opErr != nil {
		entry.Status = "error"
		entry.Detail = opErr.Error()
	}
	entry.Checksum = journalChecksum(entry)

	return j.backend.Write([]JournalEntry{entry})
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]JournalEntry, error) {
	return j.backend.Recent(limit)
}

// Close flushes and releases the backing store.
func (j *Journal) Close() error {
	return j.backend.Close()
}

func journalChecksum(e JournalEntry) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		e.Timestamp.Format(time.RFC3339Nano),
		e.Operation, e.Source, e.Destination,
		strings.Join(e.Channels, ","), e.Status)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
