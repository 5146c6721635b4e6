package emergency_test

import (
	"context"
	"fmt"
	"time"

	"github.com/vp777/rowhammer/pkg/emergency"
)

// Example demonstrates deadline-driven emergency shutdown.
func Example() {
	controller := emergency.New(emergency.Config{
		EnableSignalHandlers: false, // disabled in the example; see the harness's SIGINT path for signal-driven stop
	})

	controller.OnStop(func() {
		fmt.Println("deadline reached, flushing report and exiting")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller.Start(ctx, 10*time.Millisecond)

	<-controller.StopChannel()
	fmt.Println("stopped:", controller.IsStopped())

	// Output:
	// deadline reached, flushing report and exiting
	// stopped: true
}
