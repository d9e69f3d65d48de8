package eventbus

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogConsumer logs all table events for observability.
type LogConsumer struct {
	log logrus.FieldLogger
}

func NewLogConsumer(log logrus.FieldLogger) *LogConsumer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogConsumer{log: log}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt Event) error {
	entry := c.log.WithFields(logrus.Fields{
		"type":  evt.Type,
		"table": evt.Table,
	})
	if len(evt.RowIDs) > 0 {
		entry = entry.WithField("rows", evt.RowIDs)
	}
	if evt.Error != "" {
		entry = entry.WithField("error", evt.Error)
	}
	entry.Info("table event")
	return nil
}
