// Package main (in worker-subfolder) provides an auditor of analysis outcome events
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/kafka"
	"github.com/UnendingLoop/DamageOverlay/internal/notify"
	"github.com/UnendingLoop/DamageOverlay/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/config"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("Failed to load .env, using process environment only: %v", err)
	}

	zlog.InitConsole()
	if err := zlog.SetLevel("info"); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	broker := appConfig.GetString("KAFKA_BROKER")
	if broker == "" {
		log.Fatal("KAFKA_BROKER is not set, nothing to consume")
	}
	topic := appConfig.GetString("KAFKA_TOPIC")
	if topic == "" {
		topic = "analysis-outcomes"
	}
	groupID := appConfig.GetString("KAFKA_GROUPID")
	if groupID == "" {
		groupID = "outcome-auditor"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(ctx, broker, 5*time.Second); err != nil {
		log.Fatalf("Kafka unavailable: %v", err)
	}

	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	cons := wbfkafka.NewConsumer([]string{broker}, topic, groupID)
	cons.StartConsuming(ctx, queue, retryStrategy)

	w := worker.NewWorkerInstance(queue, cons, notify.NewLogNotifier(zlog.Logger))
	go w.StartWorker(ctx)

	<-ctx.Done()

	log.Println("Interrupt received!!! Starting shutdown sequence...")
	if err := cons.Close(); err != nil {
		log.Println("Failed to close Kafka-reader:", err)
	}
	zlog.Logger.Info().Interface("outcomes", w.Tally()).Msg("Outcome tally")
	log.Println("Exiting worker...")
}
