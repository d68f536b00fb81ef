package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/example/askdrk-backend/internal/bootstrap"
	"github.com/example/askdrk-backend/internal/config"
)

// runTimeout bounds one daily broadcast.
const runTimeout = 2 * time.Minute

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	s *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	zapLogger, err := bootstrap.NewLogger(appConfig)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	app, err := bootstrap.New(initCtx, appConfig, zapLogger)
	cancelInitCtx()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	loc, err := time.LoadLocation(appConfig.TipsTimezone)
	if err != nil {
		zapLogger.Fatal("Invalid TIPS_TIMEZONE", zap.Error(err))
	}

	cronLogger := zapCronLogger{s: zapLogger.Sugar()}
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	_, err = scheduler.AddFunc(appConfig.TipsCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		res, err := app.TipService.RunDaily(ctx)
		if err != nil {
			zapLogger.Error("Daily tip run failed", zap.Error(err))
			return
		}
		zapLogger.Info("Daily tip sent", zap.Int("day", res.Day), zap.String("title", res.Title), zap.String("messageId", res.MessageID))
	})
	if err != nil {
		zapLogger.Fatal("Invalid TIPS_CRON schedule", zap.String("schedule", appConfig.TipsCron), zap.Error(err))
	}

	scheduler.Start()
	zapLogger.Info("Tip scheduler started", zap.String("schedule", appConfig.TipsCron), zap.String("timezone", loc.String()))

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Wait for a run in progress.
	<-scheduler.Stop().Done()
	zapLogger.Info("Scheduler stopped")
}
