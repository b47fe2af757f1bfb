package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/duitku/debt-engine/internal/config"
	"github.com/duitku/debt-engine/internal/repository"
	"github.com/duitku/debt-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	log.Println("Starting debt scheduler...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	jobs := &schedulerJobs{
		debtRepo:    repository.NewDebtRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
		redis:       redisClient,
		cfg:         cfg,
	}

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	if _, err := c.AddFunc(cfg.Scheduler.SweepSpec, jobs.sweepMaturedDebts); err != nil {
		log.Fatalf("Error scheduling matured-debt sweep: %v", err)
	}
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, jobs.warmPaymentReminders); err != nil {
		log.Fatalf("Error scheduling payment reminder job: %v", err)
	}

	c.Start()
	log.Println("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

type schedulerJobs struct {
	debtRepo    repository.DebtRepository
	paymentRepo repository.PaymentRepository
	redis       *redis.Client
	cfg         *config.Config
}

// sweepMaturedDebts deactivates fully paid debts whose maturity date has
// passed, so they stop accepting payments and drop out of summaries.
func (j *schedulerJobs) sweepMaturedDebts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	debts, err := j.debtRepo.ListActive(ctx)
	if err != nil {
		log.Printf("matured-debt sweep: listing active debts failed: %v", err)
		return
	}

	now := time.Now().UTC()
	swept := 0
	for _, debt := range debts {
		if debt.MaturityDate == nil || debt.MaturityDate.After(now) {
			continue
		}
		if debt.CurrentBalanceCents != 0 {
			continue
		}

		debt.IsActive = false
		if err := j.debtRepo.Update(ctx, debt); err != nil {
			log.Printf("matured-debt sweep: deactivating debt %s failed: %v", debt.ID, err)
			continue
		}
		swept++
	}

	log.Printf("matured-debt sweep: deactivated %d debt(s)", swept)
}

// warmPaymentReminders writes a redis reminder key for every active debt
// whose next projected installment falls inside the reminder window. The
// notification service consumes these keys.
func (j *schedulerJobs) warmPaymentReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	debts, err := j.debtRepo.ListActive(ctx)
	if err != nil {
		log.Printf("payment reminders: listing active debts failed: %v", err)
		return
	}

	now := time.Now().UTC()
	warmed := 0
	for _, debt := range debts {
		payments, err := j.paymentRepo.ListByDebtID(ctx, debt.ID)
		if err != nil {
			log.Printf("payment reminders: loading payments for debt %s failed: %v", debt.ID, err)
			continue
		}

		schedule, err := service.ComputeScheduleAt(debt, payments, now)
		if err != nil {
			log.Printf("payment reminders: schedule for debt %s failed: %v", debt.ID, err)
			continue
		}

		if schedule.NextPaymentDue == nil {
			continue
		}
		if schedule.NextPaymentDue.Sub(now) > j.cfg.Business.ReminderWindow {
			continue
		}

		key := "debt:reminder:" + debt.ID.String()
		value := schedule.NextPaymentDue.Format("2006-01-02")
		if err := j.redis.Set(ctx, key, value, j.cfg.Business.ReminderKeyTTL).Err(); err != nil {
			log.Printf("payment reminders: writing %s failed: %v", key, err)
			continue
		}
		warmed++
	}

	log.Printf("payment reminders: warmed %d reminder key(s)", warmed)
}
