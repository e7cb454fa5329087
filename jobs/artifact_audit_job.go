package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ArtifactCounter reports certificates whose document is neither stored
// inline nor uploaded.
type ArtifactCounter interface {
	CountMissingArtifacts(ctx context.Context) (int64, error)
}

type ArtifactAudit struct {
	certificates ArtifactCounter
	log          *zap.Logger
	timeout      time.Duration
}

func NewArtifactAudit(certificates ArtifactCounter, log *zap.Logger) *ArtifactAudit {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArtifactAudit{certificates: certificates, log: log, timeout: time.Minute}
}

// Run counts certificates without a downloadable document and logs the result.
// It returns the count so callers outside the scheduler can act on it.
func (a *ArtifactAudit) Run() int64 {
	a.log.Info("Running job: ArtifactAudit")

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	missing, err := a.certificates.CountMissingArtifacts(ctx)
	if err != nil {
		a.log.Error("Artifact audit failed", zap.Error(err))
		return 0
	}
	if missing == 0 {
		a.log.Info("No certificates missing artifacts")
		return 0
	}

	a.log.Warn("Certificates missing artifacts", zap.Int64("count", missing))
	return missing
}

// Schedule registers the audit on c. An empty or "off" schedule disables it.
func Schedule(c *cron.Cron, schedule string, audit *ArtifactAudit) (bool, error) {
	if schedule == "" || schedule == "off" {
		return false, nil
	}
	if _, err := c.AddFunc(schedule, func() { audit.Run() }); err != nil {
		return false, err
	}
	return true, nil
}
