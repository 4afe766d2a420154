package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Theras-Labs/theras-boost-protocol/internal/storage"
	"github.com/Theras-Labs/theras-boost-protocol/internal/supply"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Supply state methods (singleton row plus emitted records)

// InitializeSupplyState creates the singleton supply state row.
func (q queries) InitializeSupplyState(ctx context.Context, state supply.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(state.Authority) == "" {
		return fmt.Errorf("authority is required")
	}
	if strings.TrimSpace(state.VaultReference) == "" {
		return fmt.Errorf("vault reference is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO supply_state (
		   id,
		   authority,
		   vault_reference,
		   total_supply,
		   total_collateral,
		   paused,
		   created_at,
		   updated_at
		 ) VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
		state.Authority,
		state.VaultReference,
		int64(state.TotalSupply),
		int64(state.TotalCollateral),
		boolToInt(state.Paused),
		toMillis(state.CreatedAt),
		toMillis(state.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert supply state: %w", err)
	}
	return nil
}

// SupplyState returns the singleton supply state row.
func (q queries) SupplyState(ctx context.Context) (supply.State, error) {
	if err := ctx.Err(); err != nil {
		return supply.State{}, err
	}
	var (
		state     supply.State
		paused    int
		createdAt int64
		updatedAt int64
		totalSup  int64
		totalCol  int64
	)
	row := q.db.QueryRowContext(
		ctx,
		`SELECT authority, vault_reference, total_supply, total_collateral, paused, created_at, updated_at
		 FROM supply_state WHERE id = 1`,
	)
	err := row.Scan(&state.Authority, &state.VaultReference, &totalSup, &totalCol, &paused, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return supply.State{}, storage.ErrNotFound
		}
		return supply.State{}, fmt.Errorf("get supply state: %w", err)
	}
	state.TotalSupply = uint64(totalSup)
	state.TotalCollateral = uint64(totalCol)
	state.Paused = paused != 0
	state.CreatedAt = fromMillis(createdAt)
	state.UpdatedAt = fromMillis(updatedAt)
	return state, nil
}

// UpdateSupplyState overwrites the singleton supply state row.
func (q queries) UpdateSupplyState(ctx context.Context, state supply.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := q.db.ExecContext(
		ctx,
		`UPDATE supply_state SET
		   authority = ?,
		   vault_reference = ?,
		   total_supply = ?,
		   total_collateral = ?,
		   paused = ?,
		   updated_at = ?
		 WHERE id = 1`,
		state.Authority,
		state.VaultReference,
		int64(state.TotalSupply),
		int64(state.TotalCollateral),
		boolToInt(state.Paused),
		toMillis(state.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update supply state: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update supply state rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendMintRecord writes one emitted mint record.
func (q queries) AppendMintRecord(ctx context.Context, record supply.MintRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO mint_records (id, user_account, amount, timestamp) VALUES (?, ?, ?, ?)`,
		record.ID,
		record.User,
		int64(record.Amount),
		toMillis(record.Timestamp),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert mint record: %w", err)
	}
	return nil
}

// AppendRedemptionRecord writes one emitted redemption record.
func (q queries) AppendRedemptionRecord(ctx context.Context, record supply.RedemptionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	_, err := q.db.ExecContext(
		ctx,
		`INSERT INTO redemption_records (id, user_account, kind, item_id, amount, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.User,
		string(record.Kind),
		record.ItemID,
		int64(record.Amount),
		toMillis(record.Timestamp),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert redemption record: %w", err)
	}
	return nil
}

// ListMintRecords returns one page of mint records ordered by record id.
func (q queries) ListMintRecords(ctx context.Context, pageSize int, pageToken string) (storage.MintRecordPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.MintRecordPage{}, err
	}
	pageSize = clampPageSize(pageSize)
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT id, user_account, amount, timestamp
		 FROM mint_records
		 WHERE id > ?
		 ORDER BY id
		 LIMIT ?`,
		pageToken,
		pageSize+1,
	)
	if err != nil {
		return storage.MintRecordPage{}, fmt.Errorf("list mint records: %w", err)
	}
	defer rows.Close()

	var page storage.MintRecordPage
	for rows.Next() {
		var (
			record    supply.MintRecord
			amount    int64
			timestamp int64
		)
		if err := rows.Scan(&record.ID, &record.User, &amount, &timestamp); err != nil {
			return storage.MintRecordPage{}, fmt.Errorf("scan mint record: %w", err)
		}
		record.Amount = uint64(amount)
		record.Timestamp = fromMillis(timestamp)
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.MintRecordPage{}, fmt.Errorf("iterate mint records: %w", err)
	}
	if len(page.Records) > pageSize {
		page.Records = page.Records[:pageSize]
		page.NextPageToken = page.Records[len(page.Records)-1].ID
	}
	return page, nil
}

// ListRedemptionRecords returns one page of redemption records ordered by record id.
func (q queries) ListRedemptionRecords(ctx context.Context, pageSize int, pageToken string) (storage.RedemptionRecordPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.RedemptionRecordPage{}, err
	}
	pageSize = clampPageSize(pageSize)
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT id, user_account, kind, item_id, amount, timestamp
		 FROM redemption_records
		 WHERE id > ?
		 ORDER BY id
		 LIMIT ?`,
		pageToken,
		pageSize+1,
	)
	if err != nil {
		return storage.RedemptionRecordPage{}, fmt.Errorf("list redemption records: %w", err)
	}
	defer rows.Close()

	var page storage.RedemptionRecordPage
	for rows.Next() {
		var (
			record    supply.RedemptionRecord
			kind      string
			amount    int64
			timestamp int64
		)
		if err := rows.Scan(&record.ID, &record.User, &kind, &record.ItemID, &amount, &timestamp); err != nil {
			return storage.RedemptionRecordPage{}, fmt.Errorf("scan redemption record: %w", err)
		}
		record.Kind = supply.RedemptionKind(kind)
		record.Amount = uint64(amount)
		record.Timestamp = fromMillis(timestamp)
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.RedemptionRecordPage{}, fmt.Errorf("iterate redemption records: %w", err)
	}
	if len(page.Records) > pageSize {
		page.Records = page.Records[:pageSize]
		page.NextPageToken = page.Records[len(page.Records)-1].ID
	}
	return page, nil
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
