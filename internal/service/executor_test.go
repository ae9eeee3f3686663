package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ssh"
)

func TestInterruptReason(t *testing.T) {
	t.Run("user cancel wins when both contexts are done", func(t *testing.T) {
		// arrange
		runCtx, cancel := context.WithCancel(context.Background())
		timeoutCtx, tcancel := context.WithTimeout(runCtx, time.Hour)
		defer tcancel()
		cancel()
		<-timeoutCtx.Done()

		// act
		sig, err := interruptReason(timeoutCtx, runCtx)

		// assert
		assert.Equal(t, ssh.SIGINT, sig)
		var rce RunCancelError
		assert.ErrorAs(t, err, &rce)
	})
	t.Run("spent stage budget without a cancel is a timeout", func(t *testing.T) {
		// arrange
		runCtx := context.Background()
		timeoutCtx, tcancel := context.WithTimeout(runCtx, time.Millisecond)
		defer tcancel()
		<-timeoutCtx.Done()

		// act
		sig, err := interruptReason(timeoutCtx, runCtx)

		// assert
		assert.Equal(t, ssh.SIGKILL, sig)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
