// Copyright 2026 The Sigstore APIs Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sql provides shard state persistence backed by a SQL database.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trailofbits/sigstore-apis/internal/persistence"
	"k8s.io/klog/v2"
)

// NewPersistence returns a persistence object that is backed by the SQL database.
func NewPersistence(db *sql.DB) persistence.StateStore {
	return &sqlStatePersistence{
		db: db,
	}
}

type sqlStatePersistence struct {
	db *sql.DB
}

func (p *sqlStatePersistence) Init(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS shard_state (
		treeID TEXT PRIMARY KEY,
		treeSize INTEGER NOT NULL,
		rootHash BLOB NOT NULL,
		checkpoint BLOB,
		verifiedAt INTEGER NOT NULL
		)`)
	return err
}

func (p *sqlStatePersistence) Shards(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT treeID FROM shard_state ORDER BY treeID")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			klog.Errorf("Failed to close rows: %v", err)
		}
	}()

	var shards []string
	for rows.Next() {
		var treeID string
		if err := rows.Scan(&treeID); err != nil {
			return nil, err
		}
		shards = append(shards, treeID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shards, nil
}

func (p *sqlStatePersistence) Latest(ctx context.Context, treeID string) (*persistence.ShardState, error) {
	return getState(ctx, p.db.QueryRowContext, treeID)
}

func (p *sqlStatePersistence) Update(ctx context.Context, treeID string, f persistence.UpdateFn) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := getState(ctx, tx.QueryRowContext, treeID)
	if err != nil {
		return err
	}

	next, err := f(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO shard_state (treeID, treeSize, rootHash, checkpoint, verifiedAt) VALUES (?, ?, ?, ?, ?)`,
		treeID, int64(next.TreeSize), next.RootHash, next.Checkpoint, next.VerifiedAt.UnixNano()); err != nil {
		return fmt.Errorf("Exec(): %v", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	tx = nil
	return nil
}

func getState(ctx context.Context, queryRow func(ctx context.Context, query string, args ...any) *sql.Row, treeID string) (*persistence.ShardState, error) {
	row := queryRow(ctx, "SELECT treeSize, rootHash, checkpoint, verifiedAt FROM shard_state WHERE treeID = ?", treeID)
	if err := row.Err(); err != nil {
		return nil, err
	}
	var (
		size       int64
		verifiedAt int64
		s          persistence.ShardState
	)
	if err := row.Scan(&size, &s.RootHash, &s.Checkpoint, &verifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.TreeSize = uint64(size)
	s.VerifiedAt = time.Unix(0, verifiedAt).UTC()
	return &s, nil
}
