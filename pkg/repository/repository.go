package repository

import (
	"context"

	"github.com/mkarpis/jobtrail/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Lookup methods return (nil, nil) when no row matches.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.JobRecord) error
	GetJobByID(ctx context.Context, id string) (*models.JobRecord, error)
	ListJobsByOwner(ctx context.Context, ownerID int64) ([]models.JobRecord, error)
	ListJobsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.Status) ([]models.JobRecord, error)
	UpdateJob(ctx context.Context, j *models.JobRecord) error
	DeleteJob(ctx context.Context, id string) error
	CountJobsByStatus(ctx context.Context, ownerID int64) (*models.Stats, error)
}
