package models

import (
	"fmt"

	"gorm.io/gorm"
)

type Job struct {
	BaseModel
	Fails       int        `json:"fails"`
	Name        string     `json:"name" gorm:"index"`
	Handler     string     `json:"handler"`
	Args        string     `json:"args"`
	LastError   string     `json:"last_error"`
	Claimed     bool       `json:"claimed" gorm:"default:false"`
	JobStatusID uint       `json:"job_status_id"`
	JobStatus   *JobStatus `json:"status,omitempty"`
}

// JobStore persists the jobs processed by the worker pool
type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

// CreateJob adds a job to the 'enqueued' queue. When 'unique' is set, a job with
// the same name that is either enqueued or in-progress results in ErrDuplicateJob.
func (store *JobStore) CreateJob(name string, handler string, args string, unique bool) error {
	queuedJobStatuses := []JobStatus{}
	err := store.db.Where("name IN ?", []string{ENQUEUED_JOB, IN_PROGRESS_JOB}).Find(&queuedJobStatuses).Error
	if err != nil {
		return err
	}

	if len(queuedJobStatuses) != 2 {
		return fmt.Errorf("missing seed data for job statuses, found %v", queuedJobStatuses)
	}

	var enqueuedJobStatus JobStatus
	statusIDs := []uint{}
	for _, jobStatus := range queuedJobStatuses {
		statusIDs = append(statusIDs, jobStatus.ID)
		if jobStatus.Name == ENQUEUED_JOB {
			enqueuedJobStatus = jobStatus
		}
	}

	return store.db.Transaction(func(tx *gorm.DB) error {
		if unique {
			var count int64
			err := tx.Model(&Job{}).Where("name = ? AND job_status_id IN ?", name, statusIDs).Count(&count).Error
			if err != nil {
				return err
			}

			if count > 0 {
				return ErrDuplicateJob
			}
		}

		return tx.Create(&Job{
			Name:        name,
			Handler:     handler,
			Args:        args,
			JobStatusID: enqueuedJobStatus.ID,
		}).Error
	})
}

// FirstJob returns the oldest job with the given status & claimed flag
func (store *JobStore) FirstJob(status string, claimed bool) (*Job, error) {
	job := Job{}
	err := store.db.Joins("INNER JOIN job_statuses ON job_statuses.id = jobs.job_status_id AND job_statuses.name = ? AND claimed = ?",
		status, claimed).Order("jobs.id asc").First(&job).Error
	if err != nil {
		return nil, wrapGormError(err)
	}

	return &job, nil
}

// ClaimJob marks an unclaimed job as claimed & in-progress. It returns false
// when another worker claimed the job first.
func (store *JobStore) ClaimJob(id uint) (bool, error) {
	inProgressStatus, err := store.FindJobStatus(IN_PROGRESS_JOB)
	if err != nil {
		return false, err
	}

	res := store.db.Model(&Job{}).Where("id = ? AND claimed = ?", id, false).Updates(map[string]interface{}{
		"claimed":       true,
		"job_status_id": inProgressStatus.ID,
	})

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (store *JobStore) UpdateJob(id uint, data map[string]interface{}) error {
	return store.db.Model(&Job{}).Where("id = ?", id).Updates(data).Error
}

func (store *JobStore) FindJob(id uint) (*Job, error) {
	job := Job{}
	err := store.db.Preload("JobStatus").First(&job, "id = ?", id).Error
	if err != nil {
		return nil, wrapGormError(err)
	}

	return &job, nil
}

// LastJobLastUpdated returns the last job which was last updated 'arg1' minutes ago
// and is of 'arg2' status.
// i.e last record where job.updated_at + 'arg1' minutes <= 'now'.
//
// WARNING: THIS QUERY IS UNIQE TO SQLITE, REMEMBER TO UPDATE IT IF/WHEN
// OTHER SQL DATABASES ARE SUPPORTED
func (store *JobStore) LastJobLastUpdated(minutesAgo uint, status string) (*Job, error) {
	jobStatus, err := store.FindJobStatus(status)
	if err != nil {
		return nil, err
	}

	job := Job{}
	err = store.db.Where(
		fmt.Sprintf("job_status_id = ? AND datetime(updated_at, '+%v minute') <= datetime('now')", minutesAgo),
		jobStatus.ID,
	).Last(&job).Error
	if err != nil {
		return nil, wrapGormError(err)
	}

	return &job, nil
}
