package audit

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartPurgeSchedule runs PurgeOlderThan with the default retention on the
// given cron spec ("@daily", "0 3 * * *", ...). Stop the returned Cron to
// end the schedule.
func StartPurgeSchedule(a *Auditor, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := a.PurgeOlderThan(0); err != nil {
			a.log.WithError(err).Warn("scheduled purge failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", spec, err)
	}
	c.Start()
	a.log.Infof("audit purge scheduled %s (retention %d days)", spec, a.retentionDays)
	return c, nil
}
