package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"faceattend/internal/attendance"
	"faceattend/internal/config"
	"faceattend/internal/faceclient"
	"faceattend/internal/queue"
	"faceattend/internal/store"
)

// Worker consumes check-in messages, calls the face service and stamps
// the verification result onto the record's check-in leg.
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

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	repo := attendance.NewRepository(db.Client)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: Face service not available: %v", err)
			log.Println("Worker will retry face processing when check-ins arrive")
		} else {
			log.Println("Face service connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for check-ins...")
	for msg := range messages {
		log.Printf("processing record %s", msg.RecordID)

		if msg.ImageURL == "" {
			// Nothing to verify against; the record stays pending for
			// manual review.
			log.Printf("record %s has no image, skipping", msg.RecordID)
			continue
		}

		result, err := face.Verify(ctx, msg.UserID, msg.ImageURL)
		if err != nil {
			log.Printf("face verify failed for %s: %v", msg.RecordID, err)
			continue
		}

		log.Printf("record %s: similarity %.2f (threshold %.2f)", msg.RecordID, result.Similarity, result.Threshold)
		if err := repo.SetLegVerified(ctx, msg.RecordID, attendance.LegCheckIn, result.Verified); err != nil {
			log.Printf("update record %s failed: %v", msg.RecordID, err)
			continue
		}
		log.Printf("record %s processed", msg.RecordID)

		time.Sleep(10 * time.Millisecond) // Small delay between processing
	}

	log.Println("worker stopped")
}
