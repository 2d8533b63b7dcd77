package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelHandle_IdempotentAndObservable(t *testing.T) {
	h := NewCancelHandle()

	select {
	case <-h.Done():
		t.Fatal("handle should not be done before Cancel")
	default:
	}

	h.Cancel()
	h.Cancel() // must not panic on a second call

	select {
	case <-h.Done():
	default:
		t.Fatal("handle should be done after Cancel")
	}
}

func TestCancelHandle_FreshHandleIsIndependent(t *testing.T) {
	a := NewCancelHandle()
	b := NewCancelHandle()

	a.Cancel()

	select {
	case <-b.Done():
		t.Fatal("cancelling one handle must not affect another")
	default:
	}
	assert.NotSame(t, a, b)
}
