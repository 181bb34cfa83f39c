package jobs

import (
	"log/slog"

	"sitepulse/internal/database"
)

// CheckpointJob truncates the SQLite WAL so the log file does not grow
// unbounded under constant ingestion.
type CheckpointJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewCheckpointJob(dbManager *database.DBManager, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{dbManager: dbManager, logger: logger}
}

func (j *CheckpointJob) Run() error {
	if err := j.dbManager.CheckpointWAL("TRUNCATE"); err != nil {
		return err
	}
	j.logger.Info("WAL checkpoint completed")
	return nil
}
