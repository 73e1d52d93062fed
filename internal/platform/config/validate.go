package config

import (
	"errors"
	"fmt"
	"time"
)

func (c Config) validate() error {
	var errs []error
	if c.Jobs.HardStopWorkingDays < 0 {
		errs = append(errs, fmt.Errorf("jobs.hard_stop_working_days must not be negative"))
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("server.timezone: %w", err))
	}
	if c.Kafka.Brokers != "" && c.Kafka.DomainTopic == "" {
		errs = append(errs, fmt.Errorf("kafka.domain_topic is required when kafka.brokers is set"))
	}
	return errors.Join(errs...)
}
