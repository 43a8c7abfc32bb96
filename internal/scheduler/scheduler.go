// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package scheduler runs periodic maintenance jobs, currently the log
// retention purge.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yuno-tw/stb-api/internal/logpipe"
	"github.com/yuno-tw/stb-api/internal/store"
)

// retentionSpec fires the purge daily at 03:30 local time, off the
// busiest hours.
const retentionSpec = "30 3 * * *"

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	store         *store.Store
	pipe          *logpipe.Pipeline
	cron          *cron.Cron
	retentionDays int
}

// New creates a scheduler purging log rows older than retentionDays.
func New(st *store.Store, pipe *logpipe.Pipeline, retentionDays int) *Scheduler {
	return &Scheduler{
		store:         st,
		pipe:          pipe,
		cron:          cron.New(),
		retentionDays: retentionDays,
	}
}

// Start registers the retention job and begins the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(retentionSpec, func() {
		s.pipe.Go("log retention purge", s.PurgeOldLogs)
	})
	if err != nil {
		return fmt.Errorf("registering retention job: %w", err)
	}

	s.cron.Start()
	s.pipe.System(fmt.Sprintf("log retention scheduled (keep %d days)", s.retentionDays))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// PurgeOldLogs deletes log rows older than the retention window.
func (s *Scheduler) PurgeOldLogs() error {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	n, err := s.store.DeleteLogsBefore(context.Background(), cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		s.pipe.System(fmt.Sprintf("purged %d log rows older than %d days", n, s.retentionDays))
	}
	return nil
}
