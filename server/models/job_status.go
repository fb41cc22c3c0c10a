package models

const (
	ENQUEUED_JOB    = "enqueued"
	IN_PROGRESS_JOB = "in-progress"
	SUCCESSFUL_JOB  = "successful"
	DEAD_JOB        = "dead"
)

type JobStatus struct {
	BaseModel
	Name string `json:"name" gorm:"not null;uniqueIndex"`
	Jobs []Job  `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

func (store *JobStore) FindJobStatus(name string) (*JobStatus, error) {
	jobStatus := JobStatus{}
	err := store.db.Select("id", "name").First(&jobStatus, "name = ?", name).Error
	if err != nil {
		return nil, wrapGormError(err)
	}

	return &jobStatus, nil
}
