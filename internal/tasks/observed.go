package tasks

import (
	"context"

	"github.com/Joseda-hg/lazytodo/internal/logger"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the collectors Observed keeps current.
type Metrics struct {
	Commands *prometheus.CounterVec
	Tasks    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lazytodo_commands_total",
				Help: "Task store commands by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		Tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lazytodo_tasks",
			Help: "Number of tasks currently held",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Commands, m.Tasks)
	}
	return m
}

// Observed logs and counts every command sent to the wrapped Repository.
type Observed struct {
	next    Repository
	log     *logger.Logger
	metrics *Metrics
}

func NewObserved(next Repository, log *logger.Logger, metrics *Metrics) *Observed {
	return &Observed{next: next, log: log, metrics: metrics}
}

func (o *Observed) Add(ctx context.Context, input model.NewTask) (model.Task, error) {
	task, err := o.next.Add(ctx, input)
	o.record(ctx, "add", task.ID, err == nil, err)
	return task, err
}

func (o *Observed) Update(ctx context.Context, id int64, patch model.Patch) (bool, error) {
	hit, err := o.next.Update(ctx, id, patch)
	o.record(ctx, "update", id, hit, err)
	return hit, err
}

func (o *Observed) Toggle(ctx context.Context, id int64) (bool, error) {
	hit, err := o.next.Toggle(ctx, id)
	o.record(ctx, "toggle", id, hit, err)
	return hit, err
}

func (o *Observed) Delete(ctx context.Context, id int64) (bool, error) {
	hit, err := o.next.Delete(ctx, id)
	o.record(ctx, "delete", id, hit, err)
	return hit, err
}

func (o *Observed) ClearCompleted(ctx context.Context) (int, error) {
	removed, err := o.next.ClearCompleted(ctx)
	o.record(ctx, "clear_completed", 0, removed > 0, err)
	if err == nil {
		o.log.Debugw("cleared completed tasks", "removed", removed)
	}
	return removed, err
}

func (o *Observed) List(ctx context.Context, status model.Status) ([]model.Task, error) {
	return o.next.List(ctx, status)
}

func (o *Observed) Get(ctx context.Context, id int64) (model.Task, bool, error) {
	return o.next.Get(ctx, id)
}

func (o *Observed) Count(ctx context.Context) (int, error) {
	return o.next.Count(ctx)
}

func (o *Observed) Stats(ctx context.Context) (model.Stats, error) {
	return o.next.Stats(ctx)
}

func (o *Observed) record(ctx context.Context, op string, id int64, hit bool, err error) {
	outcome := "applied"
	switch {
	case err != nil:
		outcome = "error"
	case !hit:
		outcome = "noop"
	}
	o.metrics.Commands.WithLabelValues(op, outcome).Inc()

	if err != nil {
		o.log.WithError(err).Errorw("task command failed", "op", op, "id", id)
		return
	}
	o.log.Debugw("task command", "op", op, "id", id, "hit", hit)

	count, err := o.next.Count(ctx)
	if err != nil {
		o.log.WithError(err).Warnw("refresh task gauge", "op", op)
		return
	}
	o.metrics.Tasks.Set(float64(count))
}
