package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harrison/contextpacker/internal/task"
)

// installInterruptCancel turns the first SIGINT/SIGTERM into a cooperative
// cancel of every slot; the job then winds down to a cancelled terminal
// status instead of dying mid-write. A second signal is left to the
// default handler.
func installInterruptCancel(a *app) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		signal.Stop(ch)
		close(a.interrupted)
		a.log.Warnf("Interrupt received, stopping...")
		for _, slot := range []task.Slot{task.SlotDownload, task.SlotLocalScan, task.SlotPackage, task.SlotClone} {
			a.manager.Cancel(slot)
		}
	}()
}
