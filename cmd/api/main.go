// Package main (in api-subfolder) provides launch of the presentation server
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/DamageOverlay/internal/blob"
	"github.com/UnendingLoop/DamageOverlay/internal/inference"
	"github.com/UnendingLoop/DamageOverlay/internal/kafka"
	"github.com/UnendingLoop/DamageOverlay/internal/mwlogger"
	"github.com/UnendingLoop/DamageOverlay/internal/notify"
	"github.com/UnendingLoop/DamageOverlay/internal/service"
	"github.com/UnendingLoop/DamageOverlay/internal/session"
	"github.com/UnendingLoop/DamageOverlay/internal/storage"
	"github.com/UnendingLoop/DamageOverlay/internal/transport"
	"github.com/UnendingLoop/DamageOverlay/internal/workflow"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Printf("Failed to load .env, using process environment only: %v", err)
	}
	settings := readSettings(appConfig)

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(settings.logLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// получатели уведомлений об исходе анализа: лог всегда, кафка - если задан брокер
	senders := []notify.Sender{notify.NewLogNotifier(zlog.Logger)}
	var producer *wbfkafka.Producer
	if settings.kafkaBroker != "" {
		producer = connectKafka(ctx, settings)
		if producer != nil {
			senders = append(senders, kafka.NewPublisher(producer, kafka.DefaultStrategy))
		}
	}

	// выгрузка результатов в минио - если задан эндпоинт
	var exporter service.ResultExporter
	if settings.minioEndpoint != "" {
		strgCtx, cancel := context.WithTimeout(ctx, time.Minute)
		strg, err := storage.NewResultStorage(strgCtx, appConfig, 5*time.Second)
		cancel()
		if err != nil {
			zlog.Logger.Warn().Err(err).Msg("Result storage unavailable, export disabled")
		} else {
			exporter = storage.NewExporter(strg, settings.resultPrefix)
		}
	}

	// ядро: хендлы, клиент инференса, реестр сессий
	handles := blob.NewRegistry()
	analyzer := inference.NewHTTPClient(settings.inferenceURL, nil)
	sessions := session.NewManager(handles, analyzer, workflow.Options{
		Timeout:  settings.analyzeTimeout,
		Notifier: notify.NewMulti(senders...),
	})

	svc := service.NewAnalysisService(sessions, handles, exporter)
	handlers := transport.NewAnalysisHandler(svc)

	// сетапим сервер
	engine := ginext.New(settings.ginMode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.GET("/health", handlers.Health)
	engine.POST("/sessions", handlers.CreateSession)
	engine.GET("/sessions/:id", handlers.GetSession)
	engine.DELETE("/sessions/:id", handlers.DeleteSession)
	engine.PUT("/sessions/:id/slots/:slot", handlers.Upload)
	engine.DELETE("/sessions/:id/slots/:slot", handlers.ClearSlot)
	engine.DELETE("/sessions/:id/slots", handlers.ClearAll)
	engine.POST("/sessions/:id/analyze", handlers.Analyze)
	engine.POST("/sessions/:id/cancel", handlers.Cancel)
	engine.POST("/sessions/:id/result/export", handlers.ExportResult)
	engine.GET("/blobs/:handle", handlers.Blob)

	srv := &http.Server{
		Addr:              ":" + settings.port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		zlog.Logger.Info().Str("addr", srv.Addr).Str("inference", analyzer.Endpoint()).Msg("Server running")
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				zlog.Logger.Info().Msg("Server gracefully stopping...")
			default:
				zlog.Logger.Error().Err(err).Msg("Server stopped")
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия
	<-ctx.Done()

	shutdown(srv, sessions, producer)
	log.Println("Exiting app...")
}

func connectKafka(ctx context.Context, settings appSettings) *wbfkafka.Producer {
	kafkaCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(kafkaCtx, settings.kafkaBroker, 5*time.Second); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Kafka unavailable, outcome events disabled")
		return nil
	}
	if err := kafka.InitKafkaTopics(kafkaCtx, settings.kafkaBroker, 5*time.Second, settings.kafkaTopic); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Failed to create outcome topic, outcome events disabled")
		return nil
	}

	return wbfkafka.NewProducer([]string{settings.kafkaBroker}, settings.kafkaTopic)
}

func shutdown(srv *http.Server, sessions *session.Manager, producer *wbfkafka.Producer) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Failed to shutdown server correctly:", err)
	}

	// отменяем запросы в полете и освобождаем хендлы
	sessions.CloseAll()

	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		log.Println("Failed to close Kafka-producer:", err)
		return
	}
	log.Println("Kafka-producer connection closed.")
}
