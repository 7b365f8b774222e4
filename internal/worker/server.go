package worker

import (
	"fmt"

	"appointment-booking/pkg/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const sweepLimit = 100

// Worker runs the completion and reminder handlers and the periodic sweep
// that catches bookings whose task was lost.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	log       *zap.Logger
}

func RedisOpt(config utils.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
}

func NewWorker(redisOpt asynq.RedisClientOpt, config utils.WorkerConfig, jobs BookingJobs, log *zap.Logger) (*Worker, error) {
	log = log.With(zap.String("component", "worker"))

	queue := config.Queue
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: config.Concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      log.Sugar(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCompleteBooking, HandleCompleteTask(jobs, log))
	mux.HandleFunc(TypeRemindBooking, HandleReminderTask(jobs, log))
	mux.HandleFunc(TypeSweepElapsed, HandleSweepTask(jobs, sweepLimit, log))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: log.Sugar()})
	sweep, err := NewSweepTask(sweepLimit)
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(config.SweepSpec, sweep, asynq.Queue(queue)); err != nil {
		return nil, fmt.Errorf("register sweep %q: %w", config.SweepSpec, err)
	}

	return &Worker{server: server, scheduler: scheduler, mux: mux, log: log}, nil
}

func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start worker scheduler: %w", err)
	}
	w.log.Info("Worker started")
	return nil
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.log.Info("Worker stopped")
}
