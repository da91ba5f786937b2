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
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// journalBackend abstracts journal storage. SQLite gives a queryable local
// history; JSONL stays grep-able and ships straight into log aggregators.
type journalBackend interface {
	Write(entries []JournalEntry) error
	Recent(limit int) ([]JournalEntry, error)
	Close() error
}

func openJournalBackend(path string) (journalBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "creating journal directory")
	}
	if filepath.Ext(path) == ".db" {
		return newSQLiteJournal(path)
	}
	return newJSONLJournal(path)
}

// sqliteJournal persists entries in a local SQLite database. WAL mode keeps
// concurrent readers from blocking the writer.
type sqliteJournal struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

func newSQLiteJournal(path string) (*sqliteJournal, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path))
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "opening journal database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, ErrCodeIOFailure, "pinging journal database")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS conversions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		operation TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT,
		format TEXT,
		channels TEXT,
		status TEXT NOT NULL,
		detail TEXT,
		checksum TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_conversions_timestamp ON conversions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, ErrCodeIOFailure, "initializing journal schema")
	}

	stmt, err := db.Prepare(`
		INSERT INTO conversions (timestamp, operation, source, destination, format, channels, status, detail, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, ErrCodeIOFailure, "preparing journal insert")
	}

	return &sqliteJournal{db: db, insertStmt: stmt}, nil
}

func (s *sqliteJournal) Write(entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "beginning journal transaction")
	}

	txStmt := tx.Stmt(s.insertStmt)
	for _, e := range entries {
		if _, err := txStmt.Exec(
			e.Timestamp.Format(time.RFC3339Nano),
			e.Operation, e.Source, e.Destination, e.Format,
			strings.Join(e.Channels, ","), e.Status, e.Detail, e.Checksum,
		); err != nil {
			tx.Rollback()
			return errors.Wrap(err, ErrCodeIOFailure, "inserting journal entry")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "committing journal transaction")
	}
	return nil
}

func (s *sqliteJournal) Recent(limit int) ([]JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, operation, source, destination, format, channels, status, detail, checksum
		FROM conversions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "querying journal")
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var ts, channels string
		if err := rows.Scan(&ts, &e.Operation, &e.Source, &e.Destination,
			&e.Format, &channels, &e.Status, &e.Detail, &e.Checksum); err != nil {
			return nil, errors.Wrap(err, ErrCodeIOFailure, "scanning journal entry")
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, errors.Wrap(err, ErrCodeIOFailure, "parsing journal timestamp")
		}
		if channels != "" {
			e.Channels = strings.Split(channels, ",")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "iterating journal entries")
	}
	return entries, nil
}

func (s *sqliteJournal) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}

// jsonlJournal appends one JSON object per line.
type jsonlJournal struct {
	path string
	file *os.File
}

func newJSONLJournal(path string) (*jsonlJournal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "opening journal file")
	}
	return &jsonlJournal{path: path, file: file}, nil
}

func (j *jsonlJournal) Write(entries []JournalEntry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, "serializing journal entry")
		}
		if _, err := j.file.Write(append(data, '\n')); err != nil {
			return errors.Wrap(err, ErrCodeIOFailure, "appending journal entry")
		}
	}
	return nil
}

func (j *jsonlJournal) Recent(limit int) ([]JournalEntry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "reading journal file")
	}
	defer f.Close()

	var all []JournalEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, errors.Wrap(err, ErrCodeIOFailure, "parsing journal entry")
		}
		all = append(all, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, ErrCodeIOFailure, "scanning journal file")
	}

	// Newest first, capped at limit.
	entries := make([]JournalEntry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, all[i])
	}
	return entries, nil
}

func (j *jsonlJournal) Close() error {
	if err := j.file.Sync(); err != nil {
		return errors.Wrap(err, ErrCodeIOFailure, "syncing journal file")
	}
	return j.file.Close()
}
