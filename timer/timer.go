// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Tick is how often the manager looks for due tasks.
const Tick = 100 * time.Millisecond

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager runs callbacks after a delay, optionally repeating. Callbacks
// run on their own goroutines.
type TimerManager struct {
	queue     TimerQueue
	mutex     sync.Mutex
	nextId    int64
	closeChan chan struct{}
	closeOnce sync.Once
}

func NewTimerManager() *TimerManager {
	manager := &TimerManager{
		queue:     make(TimerQueue, 0),
		closeChan: make(chan struct{}),
		nextId:    1,
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &TimerTask{
		Id:       m.nextId,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, task)
	return task.Id
}

func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.Id == timerId {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

// Len is the number of pending tasks.
func (m *TimerManager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Stop ends the manager. Pending tasks never run.
func (m *TimerManager) Stop() {
	m.closeOnce.Do(func() { close(m.closeChan) })
}

// due pops every task whose time has come and reschedules repeating ones.
func (m *TimerManager) due(now time.Time) []*TimerTask {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var tasks []*TimerTask
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}

		heap.Pop(&m.queue)
		tasks = append(tasks, task)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		}
	}
	return tasks
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, task := range m.due(now) {
				go task.Callback()
			}
		case <-m.closeChan:
			return
		}
	}
}
