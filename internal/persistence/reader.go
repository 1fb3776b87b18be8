package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRoundNotFound reports a lookup for a round that was never
// archived.
var ErrRoundNotFound = errors.New("round not found")

// RoundReader serves archived rounds to the audit surface.
type RoundReader struct {
	db *sql.DB
}

func NewRoundReader(db *sql.DB) *RoundReader {
	return &RoundReader{db: db}
}

// GetRound fetches one archived round by id.
func (r *RoundReader) GetRound(ctx context.Context, roundID string) (*RoundRow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT round_id, player, deck_root, hole_pos, doubled, split,
		       settlement, reveal, checksum, finished_at
		FROM archive.rounds
		WHERE round_id = $1`, roundID)

	var rr RoundRow
	err := row.Scan(&rr.RoundID, &rr.Player, &rr.DeckRoot, &rr.HolePos,
		&rr.Doubled, &rr.Split, &rr.Settlement, &rr.Reveal, &rr.Checksum, &rr.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("get round %s: %w", roundID, err)
	}
	return &rr, nil
}

// ListRoundsByPlayer returns a player's most recent archived rounds.
func (r *RoundReader) ListRoundsByPlayer(ctx context.Context, player string, limit int) ([]RoundRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT round_id, player, deck_root, hole_pos, doubled, split,
		       settlement, reveal, checksum, finished_at
		FROM archive.rounds
		WHERE player = $1
		ORDER BY finished_at DESC
		LIMIT $2`, player, limit)
	if err != nil {
		return nil, fmt.Errorf("list rounds for %s: %w", player, err)
	}
	defer rows.Close()

	var out []RoundRow
	for rows.Next() {
		var rr RoundRow
		if err := rows.Scan(&rr.RoundID, &rr.Player, &rr.DeckRoot, &rr.HolePos,
			&rr.Doubled, &rr.Split, &rr.Settlement, &rr.Reveal, &rr.Checksum, &rr.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
