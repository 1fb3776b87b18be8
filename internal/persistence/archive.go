package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RoundRow is one archived round in archive.rounds. The settlement and
// reveal columns hold canonical CBOR blobs; checksum is blake3 over
// both, so auditors can detect storage corruption without decoding.
type RoundRow struct {
	RoundID    string
	Player     string
	DeckRoot   []byte
	HolePos    int
	Doubled    bool
	Split      bool
	Settlement []byte
	Reveal     []byte
	Checksum   []byte
	FinishedAt time.Time
}

// ArchiveWriter writes round rows to Postgres using multi-row INSERT.
type ArchiveWriter struct {
	db *sql.DB
}

func NewArchiveWriter(db *sql.DB) *ArchiveWriter {
	return &ArchiveWriter{db: db}
}

// WriteRoundBatch writes a batch of rounds inside tx. Re-archiving the
// same round id is a no-op, so retried batches stay idempotent.
func (w *ArchiveWriter) WriteRoundBatch(ctx context.Context, tx *sql.Tx, rounds []RoundRow) error {
	if len(rounds) == 0 {
		return nil
	}

	query := `INSERT INTO archive.rounds
		(round_id, player, deck_root, hole_pos, doubled, split, settlement, reveal, checksum, finished_at)
		VALUES `

	values := make([]string, 0, len(rounds))
	args := make([]interface{}, 0, len(rounds)*10)

	for i, r := range rounds {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args,
			r.RoundID, r.Player, r.DeckRoot, r.HolePos, r.Doubled, r.Split,
			r.Settlement, r.Reveal, r.Checksum, r.FinishedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (round_id) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
