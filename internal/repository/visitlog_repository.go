package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/sblogdev/sblog/internal/queue"
)

// VisitLogRepo persists page-view events drained from the visit queue.  It
// satisfies queue.VisitRecorder so the consumer can write rows directly.
type VisitLogRepo struct{ DB *sql.DB }

func NewVisitLogRepo(db *sql.DB) *VisitLogRepo { return &VisitLogRepo{DB: db} }

// Record inserts one visit row.  The event timestamp is stored as sent by
// the middleware; a missing or malformed one falls back to now.
func (r *VisitLogRepo) Record(ctx context.Context, ev queue.VisitEvent) error {
    visitedAt, err := time.Parse(time.RFC3339, ev.VisitedAt)
    if err != nil {
        visitedAt = time.Now().UTC()
    }
    _, err = r.DB.ExecContext(ctx,
        "INSERT INTO visit_logs (path, ip, user_agent, referer, visited_at) VALUES (?,?,?,?,?)",
        ev.Path, ev.IP, ev.UserAgent, ev.Referer, visitedAt)
    return err
}

// CountSince returns how many visits were recorded at or after the given
// time, used by the dashboard collaborator.
func (r *VisitLogRepo) CountSince(ctx context.Context, since time.Time) (uint64, error) {
    var n uint64
    err := r.DB.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM visit_logs WHERE visited_at >= ?", since).Scan(&n)
    return n, err
}
