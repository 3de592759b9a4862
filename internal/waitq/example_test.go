package waitq_test

import (
	"fmt"
	"runtime"

	"github.com/llxisdsh/parker/internal/waitq"
)

func ExampleQueue() {
	var q waitq.Queue
	done := make(chan struct{})
	go func() {
		q.Wait()
		close(done)
	}()
	for q.Len() == 0 {
		runtime.Gosched()
	}
	q.NotifyOne()
	<-done
	fmt.Println("woken")
	// Output: woken
}
