package server

import (
	"github.com/Daskott/agenda/server/backup"
	"github.com/Daskott/agenda/server/work"
)

func registerJobHandlers(wpa *work.WorkerPoolAdapter, dbBackup *backup.Backup) error {
	return wpa.Register(backup.JOB_NAME, dbBackup.Handler)
}

func enqueueJobs(wpa *work.WorkerPoolAdapter, backupSchedule string) error {
	return wpa.PeriodicallyPerform(backupSchedule, work.JobParams{
		Name:    backup.JOB_NAME,
		Handler: backup.JOB_NAME,
		Unique:  true,
		Args:    map[string]interface{}{},
	})
}

// dequeueJobs stops scheduling the periodic jobs added by enqueueJobs
func dequeueJobs(wpa *work.WorkerPoolAdapter) error {
	return wpa.RemovePeriodicJob(backup.JOB_NAME)
}
