package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ============================================================
// Background jobs
// ============================================================

// sweepTimeout bounds one OTP sweep run
const sweepTimeout = 30 * time.Second

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron *cron.Cron
	otp  *OTPService
}

// NewCronService creates a cron service that sweeps expired OTPs on
// sweepSchedule (a cron expression or "@every 1m")
func NewCronService(otp *OTPService, sweepSchedule string) (*CronService, error) {
	s := &CronService{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		otp:  otp,
	}

	if _, err := s.cron.AddFunc(sweepSchedule, s.sweepOTPs); err != nil {
		return nil, fmt.Errorf("invalid OTP sweep schedule %q: %w", sweepSchedule, err)
	}
	return s, nil
}

// Start starts the scheduler in its own goroutine
func (s *CronService) Start() {
	s.cron.Start()
	log.Println("🚀 CronService started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// Entries returns the number of scheduled jobs
func (s *CronService) Entries() int {
	return len(s.cron.Entries())
}

func (s *CronService) sweepOTPs() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.otp.Sweep(ctx); err != nil {
		log.Printf("❌ OTP sweep error: %v", err)
	}
}
