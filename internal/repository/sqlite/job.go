package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkarpis/jobtrail/pkg/models"
)

const jobColumns = `id, owner_id, company, role, status, applied_date, interview_date, notes, contact, source, resume, last_updated`

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.JobRecord) error {
	if j == nil {
		return fmt.Errorf("job record is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO job_records (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.OwnerID, j.Company, j.Role, string(j.Status),
		j.AppliedDate.UTC().UnixMilli(), millisOrNil(j.InterviewDate),
		j.Notes, j.Contact, j.Source, j.Resume,
		j.LastUpdated.UTC().UnixMilli(),
	)
	return err
}

func (r *SQLiteRepo) GetJobByID(ctx context.Context, id string) (*models.JobRecord, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_records WHERE id = ?`, id)
	j, err := scanJob(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return j, nil
}

func (r *SQLiteRepo) ListJobsByOwner(ctx context.Context, ownerID int64) ([]models.JobRecord, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM job_records WHERE owner_id = ? ORDER BY applied_date DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (r *SQLiteRepo) ListJobsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.Status) ([]models.JobRecord, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM job_records WHERE owner_id = ? AND status = ? ORDER BY applied_date DESC`, ownerID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectJobs(rows)
}

// UpdateJob overwrites every mutable column; the caller supplies the full
// record. applied_date and owner_id are immutable and not touched.
func (r *SQLiteRepo) UpdateJob(ctx context.Context, j *models.JobRecord) error {
	if j == nil {
		return fmt.Errorf("job record is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE job_records SET company = ?, role = ?, status = ?, interview_date = ?, notes = ?, contact = ?, source = ?, resume = ?, last_updated = ? WHERE id = ?`,
		j.Company, j.Role, string(j.Status), millisOrNil(j.InterviewDate),
		j.Notes, j.Contact, j.Source, j.Resume,
		j.LastUpdated.UTC().UnixMilli(), j.ID,
	)
	return err
}

func (r *SQLiteRepo) DeleteJob(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM job_records WHERE id = ?`, id)
	return err
}

// CountJobsByStatus buckets the caller's records by the four known statuses.
// Total counts every row, so historical rows with an unknown status inflate
// Total without landing in a bucket; this mirrors the deployed behavior.
func (r *SQLiteRepo) CountJobsByStatus(ctx context.Context, ownerID int64) (*models.Stats, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT status, COUNT(1) FROM job_records WHERE owner_id = ? GROUP BY status`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.Stats{}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch models.Status(status) {
		case models.StatusApplied:
			stats.Applied = count
		case models.StatusInterview:
			stats.Interview = count
		case models.StatusOffer:
			stats.Offer = count
		case models.StatusRejected:
			stats.Rejected = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func collectJobs(rows *sql.Rows) ([]models.JobRecord, error) {
	var out []models.JobRecord
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func scanJob(scan func(dest ...any) error) (*models.JobRecord, error) {
	var (
		j             models.JobRecord
		status        string
		appliedDate   int64
		interviewDate sql.NullInt64
		notes         sql.NullString
		contact       sql.NullString
		source        sql.NullString
		resume        sql.NullString
		lastUpdated   int64
	)
	if err := scan(&j.ID, &j.OwnerID, &j.Company, &j.Role, &status, &appliedDate, &interviewDate, &notes, &contact, &source, &resume, &lastUpdated); err != nil {
		return nil, err
	}

	j.Status = models.Status(status)
	j.AppliedDate = time.UnixMilli(appliedDate).UTC()
	j.LastUpdated = time.UnixMilli(lastUpdated).UTC()
	if interviewDate.Valid {
		t := time.UnixMilli(interviewDate.Int64).UTC()
		j.InterviewDate = &t
	}
	j.Notes = notes.String
	j.Contact = contact.String
	j.Source = source.String
	j.Resume = resume.String

	return &j, nil
}

func millisOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixMilli()
}
