package bot

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Dispatcher держит очередь задач для каждого пользователя и по одной
// горутине на пользователя с непустой очередью.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queues: make(map[int64][]func()),
		logger: logger,
	}
}

// Submit добавляет задачу в конец очереди пользователя
func (d *Dispatcher) Submit(userID int64, job func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue, running := d.queues[userID]
	d.queues[userID] = append(queue, job)
	if !running {
		d.wg.Add(1)
		go d.run(userID)
	}
}

// Active число пользователей, у которых есть необработанные задачи
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Wait дожидается выполнения всех поставленных задач
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(userID int64) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		queue := d.queues[userID]
		if len(queue) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		job := queue[0]
		queue[0] = nil
		d.queues[userID] = queue[1:]
		d.mu.Unlock()

		d.execute(userID, job)
	}
}

func (d *Dispatcher) execute(userID int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in update handler",
				"user_id", userID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	job()
}
