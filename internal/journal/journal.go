package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"membership-workflow/internal/telemetry"
	"time"
)

//go:embed schema.sql
var Schema string

const (
	report_store_record = "store.record"
	report_store_list   = "store.list"
)

// Entry is a registration that reached card generation.
type Entry struct {
	Id            int64
	EpicNumber    string
	MemberId      int64
	MembershipNo  string
	CardPath      string
	PaymentStatus string
	Mode          string
	Fabricated    bool
	CreatedAt     time.Time
}

// Store appends finished registrations to a local table. It is operator
// tooling, the backend stays the system of record.
type Store struct {
	db  *sql.DB
	tel telemetry.API
}

// NewStore creates the registrations table if it does not exist yet.
func NewStore(ctx context.Context, db *sql.DB, tel telemetry.API) (Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return Store{}, fmt.Errorf("create schema: %w", err)
	}
	return Store{
		db:  db,
		tel: telemetry.NewScopedAPI("journal", tel),
	}, nil
}

func (s Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`insert into registrations (
			epic_number, member_id, membership_no, card_path,
			payment_status, mode, fabricated, created_at
		) values (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EpicNumber,
		entry.MemberId,
		entry.MembershipNo,
		entry.CardPath,
		entry.PaymentStatus,
		entry.Mode,
		entry.Fabricated,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		s.tel.ReportBroken(report_store_record, err, entry.MemberId)
		return Entry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		s.tel.ReportBroken(report_store_record, fmt.Errorf("last insert id: %w", err))
		return Entry{}, err
	}
	entry.Id = id
	return entry, nil
}

// List returns the newest `limit` entries, newest first. A limit of 0 or
// less returns everything.
func (s Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(
		ctx,
		`select
			id, epic_number, member_id, membership_no, card_path,
			payment_status, mode, fabricated, created_at
		from registrations
		order by created_at desc, id desc
		limit ?`,
		limit,
	)
	if err != nil {
		s.tel.ReportBroken(report_store_list, err)
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var createdAt int64
		err := rows.Scan(
			&entry.Id,
			&entry.EpicNumber,
			&entry.MemberId,
			&entry.MembershipNo,
			&entry.CardPath,
			&entry.PaymentStatus,
			&entry.Mode,
			&entry.Fabricated,
			&createdAt,
		)
		if err != nil {
			s.tel.ReportBroken(report_store_list, fmt.Errorf("scan: %w", err))
			return nil, err
		}
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, entry)
	}
	return out, rows.Err()
}
