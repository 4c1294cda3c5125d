package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apper-apps/checkpoint-port-firewall/internal/config"
	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
	"github.com/apper-apps/checkpoint-port-firewall/internal/queue"
	"github.com/apper-apps/checkpoint-port-firewall/internal/session"
	"github.com/apper-apps/checkpoint-port-firewall/internal/store"
)

// Worker consumes check-in messages and recomputes the affected day's
// session summary. Replays are harmless: the summary is derived entirely
// from the attendance table.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	var (
		attendance store.AttendanceStore
		sessions   store.SessionStore
	)
	if cfg.StoreBackend == "memory" {
		mem := store.NewMemory()
		attendance = mem.Attendance
		sessions = mem.Sessions
		log.Println("using in-memory store")
	} else {
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect failed: %v", err)
		}
		defer db.Close()
		pg := store.NewPostgres(db.Client)
		attendance = pg.Attendance
		sessions = pg.Sessions
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	svc := session.NewService(attendance, sessions, cfg.TotalRegistered)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != queue.TypeCheckIn {
			continue
		}

		id := string(msg.Body)

		rec, err := attendance.GetByID(ctx, id)
		if err != nil {
			log.Printf("fetch record %s failed: %v", id, err)
			continue
		}

		date := model.Day(rec.CheckInTime)
		sess, err := svc.RecomputeDay(ctx, date)
		if err != nil {
			log.Printf("recompute %s failed: %v", date, err)
			continue
		}
		log.Printf("session %s updated: %d present of %d", sess.Date, sess.TotalPresent, sess.TotalRegistered)

		time.Sleep(10 * time.Millisecond) // Small delay between processing
	}

	log.Println("worker stopped")
}
