package utils

import "sync"

type CompletedTask[In any, Out any] struct {
	Input  In
	Result Out
	Error  error
}

// RunInPool applies worker to every input using at most maxWorkers goroutines
// and returns one CompletedTask per input, in input order.
func RunInPool[In any, Out any](inputs []In, worker func(In) (Out, error), maxWorkers int) []CompletedTask[In, Out] {
	completed := make([]CompletedTask[In, Out], len(inputs))
	if len(inputs) == 0 {
		return completed
	}

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	workers := max(1, min(len(inputs), maxWorkers))

	wg := sync.WaitGroup{}
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()

			for i := range queue {
				res, err := worker(inputs[i])
				completed[i] = CompletedTask[In, Out]{Input: inputs[i], Result: res, Error: err}
			}
		}()
	}

	wg.Wait()

	return completed
}
