package store

import (
	"context"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HarshilGandhi7/Code-collab/internal/app"
	"github.com/HarshilGandhi7/Code-collab/internal/room"
)

type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper
func NewPostgres(ctx context.Context, cfg app.Config, log *slog.Logger) (*Postgres, error) {
	pc, err := pgxpool.ParseConfig(cfg.PGURL)
	if err != nil {
		return nil, err
	}
	if cfg.PGMaxConn > 0 {
		pc.MaxConns = int32(cfg.PGMaxConn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// SaveSnapshot inserts a teardown snapshot for a room.
func (p *Postgres) SaveSnapshot(ctx context.Context, roomID, language, code string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO room_snapshots (room_id, language, code)
		VALUES ($1, $2, $3)
	`, roomID, language, code)
	if err != nil {
		return err
	}
	p.log.Info("snapshot.saved", "room", roomID, "bytes", len(code))
	return nil
}

// ListSnapshots returns a room's snapshots, newest first.
func (p *Postgres) ListSnapshots(ctx context.Context, roomID string, limit int) ([]RoomSnapshot, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, language, code, closed_at
		FROM room_snapshots
		WHERE room_id = $1
		ORDER BY closed_at DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomSnapshot
	for rows.Next() {
		var s RoomSnapshot
		if err := rows.Scan(&s.ID, &s.RoomID, &s.Language, &s.Code, &s.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ArchiveRoom implements room.Archiver. Fire-and-forget on purpose: room
// teardown must not block on or fail with the database.
func (p *Postgres) ArchiveRoom(roomID string, final room.Snapshot) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.SaveSnapshot(ctx, roomID, final.Language, final.Code); err != nil {
			p.log.Error("snapshot.save", "room", roomID, "err", err)
		}
	}()
}
