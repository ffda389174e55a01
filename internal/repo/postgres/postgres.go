package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

var _ repo.ServiceStore = (*Store)(nil)
var _ repo.IncidentStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Init provisions the schema. The history lives as an integer array on
// the service row so append + eviction + online flag stay one statement.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS services (
    id             VARCHAR(255) PRIMARY KEY,
    name           VARCHAR(255) NOT NULL,
    target         TEXT NOT NULL,
    response_times INTEGER[] DEFAULT array[]::INTEGER[],
    is_online      BOOLEAN DEFAULT false
);

CREATE TABLE IF NOT EXISTS incidents (
    id           BIGSERIAL PRIMARY KEY,
    service_id   VARCHAR(255) REFERENCES services(id),
    service_name VARCHAR(255) NOT NULL,
    start_time   TIMESTAMP WITH TIME ZONE NOT NULL,
    end_time     TIMESTAMP WITH TIME ZONE,
    description  TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// ---- ServiceStore ----

func (s *Store) UpsertService(ctx context.Context, name, target string) (*domain.Service, error) {
	id, err := domain.NormalizeID(name)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO services (id, name, target)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET name = $2, target = $3
		 RETURNING id, name, target, is_online`,
		string(id), name, target,
	)
	var svc domain.Service
	if err := row.Scan(&svc.ID, &svc.Name, &svc.Target, &svc.IsOnline); err != nil {
		return nil, fmt.Errorf("upsert service: %w", err)
	}
	return &svc, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, target, is_online FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []domain.Service
	for rows.Next() {
		var svc domain.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Target, &svc.IsOnline); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *Store) AppendSample(ctx context.Context, id domain.ServiceID, latencyMS int) error {
	return s.appendSampleCapped(ctx, id, latencyMS, domain.MaxHistory)
}

func (s *Store) appendSampleCapped(ctx context.Context, id domain.ServiceID, latencyMS, maxHistory int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE services
		    SET response_times = array_append(
		        CASE
		            WHEN array_length(response_times, 1) >= $4
		            THEN response_times[2:array_length(response_times, 1)]
		            ELSE response_times
		        END,
		        $1
		    ),
		    is_online = $2
		  WHERE id = $3`,
		latencyMS, latencyMS > 0, string(id), maxHistory,
	)
	if err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("append sample: unknown service %q", id)
	}
	return nil
}

func (s *Store) CountRecentFailures(ctx context.Context, id domain.ServiceID, window int) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		   FROM (
		       SELECT unnest(
		           CASE
		               WHEN array_length(response_times, 1) > $1
		               THEN response_times[array_length(response_times, 1) - $1 + 1:array_length(response_times, 1)]
		               ELSE response_times
		           END
		       ) AS rt
		       FROM services
		       WHERE id = $2
		   ) AS recent
		  WHERE rt = 0`,
		window, string(id),
	)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count recent failures: %w", err)
	}
	return int(n), nil
}

func (s *Store) RecentSamples(ctx context.Context, id domain.ServiceID, limit int) ([]int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT CASE
		            WHEN $1 > 0 AND array_length(response_times, 1) > $1
		            THEN response_times[array_length(response_times, 1) - $1 + 1:array_length(response_times, 1)]
		            ELSE response_times
		        END
		   FROM services
		  WHERE id = $2`,
		limit, string(id),
	)
	var samples []int32
	if err := row.Scan(&samples); err != nil {
		return nil, fmt.Errorf("recent samples: %w", err)
	}
	out := make([]int, len(samples))
	for i, v := range samples {
		out[i] = int(v)
	}
	return out, nil
}

// ---- IncidentStore ----

func (s *Store) ListOpen(ctx context.Context) ([]domain.Incident, error) {
	return s.listIncidents(ctx, false)
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Incident, error) {
	return s.listIncidents(ctx, true)
}

func (s *Store) listIncidents(ctx context.Context, includeClosed bool) ([]domain.Incident, error) {
	q := `SELECT id, service_id, service_name, start_time, end_time, description
	        FROM incidents`
	if !includeClosed {
		q += ` WHERE end_time IS NULL`
	}
	q += ` ORDER BY start_time DESC, id DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []domain.Incident
	for rows.Next() {
		var inc domain.Incident
		if err := rows.Scan(&inc.ID, &inc.ServiceID, &inc.ServiceName,
			&inc.StartTime, &inc.EndTime, &inc.Description); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, id domain.ServiceID, description string) (*domain.Incident, error) {
	// Snapshot the name at creation; renames must not rewrite history.
	row := s.pool.QueryRow(ctx,
		`INSERT INTO incidents (service_id, service_name, start_time, description)
		 SELECT id, name, CURRENT_TIMESTAMP, $2 FROM services WHERE id = $1
		 RETURNING id, service_name, start_time`,
		string(id), description,
	)
	inc := domain.Incident{ServiceID: id, Description: description}
	if err := row.Scan(&inc.ID, &inc.ServiceName, &inc.StartTime); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	return &inc, nil
}

func (s *Store) CloseIncident(ctx context.Context, incidentID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE incidents SET end_time = NOW() WHERE id = $1 AND end_time IS NULL`,
		incidentID,
	)
	if err != nil {
		return fmt.Errorf("close incident: %w", err)
	}
	return nil
}
