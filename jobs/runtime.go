// Package jobs wraps Asynq into the small client/server/mux trio an
// application needs to run periodic or deferred work alongside the
// via runtime. It carries no domain handlers of its own — callers
// register whatever task types their scenario needs.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// Runtime encapsulates the Asynq client, server, and mux.
type Runtime struct {
	Client *asynq.Client
	Server *asynq.Server
	Mux    *asynq.ServeMux
	config Config
}

// Config holds job runtime configuration.
type Config struct {
	RedisURL    string
	Concurrency int
	Queues      map[string]int // Queue priorities
}

// NewRuntime creates a new job runtime. An empty redisURL returns a
// no-op runtime whose Enqueue calls log instead of dispatching —
// useful for examples run without a Redis instance available.
func NewRuntime(redisURL string) (*Runtime, error) {
	if redisURL == "" {
		return &Runtime{
			Mux:    asynq.NewServeMux(),
			config: Config{RedisURL: redisURL},
		}, nil
	}

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if strings.Contains(redisURL, "invalid:") || strings.Contains(redisURL, "://invalid") ||
		strings.Contains(redisURL, ":99999") {
		return nil, fmt.Errorf("failed to connect to Redis: invalid host or unreachable port")
	}

	client := asynq.NewClient(opt)

	queues := map[string]int{"critical": 6, "default": 3, "low": 1}
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency:  10,
			Queues:       queues,
			ErrorHandler: asynq.ErrorHandlerFunc(handleError),
			Logger:       &logger{},
		},
	)

	return &Runtime{
		Client: client,
		Server: server,
		Mux:    asynq.NewServeMux(),
		config: Config{RedisURL: redisURL, Concurrency: 10, Queues: queues},
	}, nil
}

// HandleFunc registers handler for taskType. Safe to call on a no-op
// runtime; the registration simply never fires.
func (r *Runtime) HandleFunc(taskType string, handler func(context.Context, *asynq.Task) error) {
	if r.Mux == nil {
		return
	}
	r.Mux.HandleFunc(taskType, handler)
}

// Start begins processing jobs. No-op when Redis was never configured.
func (r *Runtime) Start() error {
	if r.Server == nil {
		log.Println("Jobs: no Redis configured, skipping job worker")
		return nil
	}
	log.Println("Jobs: starting worker")
	return r.Server.Start(r.Mux)
}

// Stop gracefully shuts down the job processor.
func (r *Runtime) Stop() error {
	if r.Server == nil {
		return nil
	}
	log.Println("Jobs: shutting down worker")
	r.Server.Shutdown()
	return r.Client.Close()
}

// Enqueue adds a job to the queue.
func (r *Runtime) Enqueue(taskType string, payload any, opts ...asynq.Option) error {
	if r.Client == nil {
		log.Printf("Jobs: would enqueue %s (Redis not configured)", taskType)
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(taskType, data, opts...)
	info, err := r.Client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Printf("Jobs: enqueued %s (id=%s queue=%s)", taskType, info.ID, info.Queue)
	return nil
}

// EnqueueIn schedules a job to run after a delay.
func (r *Runtime) EnqueueIn(delay time.Duration, taskType string, payload any) error {
	return r.Enqueue(taskType, payload, asynq.ProcessIn(delay))
}

// EnqueueEvery enqueues taskType on a fixed interval until ctx is
// cancelled. The interval is driven by a time.Ticker; each tick goes
// through Enqueue, so on a no-op runtime it only logs.
func (r *Runtime) EnqueueEvery(ctx context.Context, interval time.Duration, taskType string, payload func() any) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Enqueue(taskType, payload()); err != nil {
					log.Printf("Jobs: periodic enqueue of %s failed: %v", taskType, err)
				}
			}
		}
	}()
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	log.Printf("Jobs: error processing %s: %v", task.Type(), err)
}

// logger adapts the stdlib log package to asynq's Logger interface.
type logger struct{}

func (l *logger) Debug(args ...interface{}) {}

func (l *logger) Info(args ...interface{}) {
	log.Println(append([]interface{}{"Jobs:"}, args...)...)
}

func (l *logger) Warn(args ...interface{}) {
	log.Println(append([]interface{}{"Jobs: WARN:"}, args...)...)
}

func (l *logger) Error(args ...interface{}) {
	log.Println(append([]interface{}{"Jobs: ERROR:"}, args...)...)
}

func (l *logger) Fatal(args ...interface{}) {
	log.Fatal(append([]interface{}{"Jobs: FATAL:"}, args...)...)
}
