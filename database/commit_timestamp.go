// Copyright 2025 Blink Labs Software
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

package database

import (
	"fmt"
)

// CommitTimestampError reports that the ledger store and the bridge record
// store did not see the same last commit. Every bridge transition writes
// both, so a mismatch means a crash landed between the two commits.
type CommitTimestampError struct {
	// LedgerTimestamp is the last commit seen by the metadata store, which
	// holds units, balances, the metadata registry and the outbound log
	LedgerTimestamp int64
	// RecordTimestamp is the last commit seen by the blob store, which holds
	// program state and token state records
	RecordTimestamp int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"bridge stores out of sync: ledger committed at %d, token records at %d (%s store is ahead)",
		e.LedgerTimestamp,
		e.RecordTimestamp,
		e.Ahead(),
	)
}

// Ahead names the store holding the newer commit
func (e CommitTimestampError) Ahead() string {
	if e.LedgerTimestamp > e.RecordTimestamp {
		return "ledger"
	}
	return "record"
}

// verifyStoresInSync refuses to open a database whose stores disagree on the
// last committed transition
func (d *Database) verifyStoresInSync() error {
	ledgerTimestamp, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("reading ledger commit timestamp: %w", err)
	}
	// Fresh database
	if ledgerTimestamp <= 0 {
		return nil
	}
	recordTimestamp, err := d.Blob().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("reading token record commit timestamp: %w", err)
	}
	if recordTimestamp != ledgerTimestamp {
		return CommitTimestampError{
			LedgerTimestamp: ledgerTimestamp,
			RecordTimestamp: recordTimestamp,
		}
	}
	return nil
}

// stampCommit records the same commit time in both stores inside txn
func (d *Database) stampCommit(txn *Txn, timestamp int64) error {
	if err := d.Metadata().SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return fmt.Errorf("ledger store: %w", err)
	}
	if err := d.Blob().SetCommitTimestamp(timestamp, txn.Blob()); err != nil {
		return fmt.Errorf("token record store: %w", err)
	}
	return nil
}
