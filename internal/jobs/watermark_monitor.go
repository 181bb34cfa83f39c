package jobs

import (
	"log/slog"

	"sitepulse/internal/database"
	"sitepulse/internal/watermark"
)

// ETLJobName is the watermark marker advanced by the external batch
// exporter.
const ETLJobName = "etl_export"

// lagWarnThreshold is the unprocessed-event count above which the
// monitor warns instead of just reporting.
const lagWarnThreshold = 100000

// WatermarkMonitorJob reports how far the external ETL job trails the
// live event log. It only observes; live aggregations never wait on
// the watermark.
type WatermarkMonitorJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewWatermarkMonitorJob(dbManager *database.DBManager, logger *slog.Logger) *WatermarkMonitorJob {
	return &WatermarkMonitorJob{dbManager: dbManager, logger: logger}
}

func (j *WatermarkMonitorJob) Run() error {
	db := j.dbManager.GetConnection()

	mark, err := watermark.Get(db, ETLJobName)
	if err != nil {
		return err
	}

	lag, err := watermark.Lag(db, ETLJobName)
	if err != nil {
		return err
	}

	if lag > lagWarnThreshold {
		j.logger.Warn("ETL watermark lagging",
			slog.Int64("unprocessed_events", lag),
			slog.Uint64("last_event_id", uint64(mark.LastEventID)))
		return nil
	}

	j.logger.Debug("ETL watermark status",
		slog.Int64("unprocessed_events", lag),
		slog.Uint64("last_event_id", uint64(mark.LastEventID)))
	return nil
}
