package syncval

import (
	"context"
	"testing"
)

func TestCoordinatorSubmitRejectsNonIncreasingTag(t *testing.T) {
	coord := NewCoordinator(context.Background(), nil)
	defer coord.Close()

	if err := coord.Submit(QueueGraphics, Tag(1), func() error { return nil }); err != nil {
		t.Fatalf("first submission should succeed, got %v", err)
	}
	if err := coord.Submit(QueueGraphics, Tag(1), func() error { return nil }); !IsCode(err, ErrInvalidSubmission) {
		t.Errorf("a repeated tag on the same queue should fail with ErrInvalidSubmission, got %v", err)
	}
	if err := coord.Submit(QueueGraphics, Tag(0), func() error { return nil }); !IsCode(err, ErrInvalidSubmission) {
		t.Errorf("a decreasing tag on the same queue should fail with ErrInvalidSubmission, got %v", err)
	}
	if err := coord.Submit(QueueGraphics, Tag(2), func() error { return nil }); err != nil {
		t.Errorf("a strictly increasing tag should be accepted, got %v", err)
	}
}

func TestCoordinatorSubmitValidationCanBeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableQueueSubmitValidation = false
	coord := NewCoordinator(context.Background(), cfg)
	defer coord.Close()

	if err := coord.Submit(QueueGraphics, Tag(5), func() error { return nil }); err != nil {
		t.Fatalf("Submit should succeed, got %v", err)
	}
	if err := coord.Submit(QueueGraphics, Tag(1), func() error { return nil }); err != nil {
		t.Errorf("a non-increasing tag should be accepted when validation is disabled, got %v", err)
	}
}

func TestCoordinatorSignalWaitBinarySemaphore(t *testing.T) {
	coord := NewCoordinator(context.Background(), nil)
	defer coord.Close()

	if err := coord.RegisterBinarySemaphore("frame"); err != nil {
		t.Fatalf("RegisterBinarySemaphore returned an error: %v", err)
	}
	if err := coord.Signal("frame", QueueGraphics, 0, Tag(1)); err != nil {
		t.Fatalf("Signal returned an error: %v", err)
	}
	resolved, err := coord.Wait("frame", QueueCompute, 0, Tag(2))
	if err != nil || !resolved {
		t.Fatalf("Wait on a signalled binary semaphore should resolve, got resolved=%v err=%v", resolved, err)
	}
}

func TestCoordinatorWaitUnknownSemaphoreErrors(t *testing.T) {
	coord := NewCoordinator(context.Background(), nil)
	defer coord.Close()
	if _, err := coord.Wait("nope", QueueGraphics, 0, Tag(1)); !IsCode(err, ErrUnknownSemaphore) {
		t.Errorf("Wait on an unregistered semaphore should fail with ErrUnknownSemaphore, got %v", err)
	}
}

func TestCoordinatorTimelineSemaphoreResolvesOutOfOrderWait(t *testing.T) {
	coord := NewCoordinator(context.Background(), nil)
	defer coord.Close()
	if err := coord.RegisterTimelineSemaphore("upload"); err != nil {
		t.Fatalf("RegisterTimelineSemaphore returned an error: %v", err)
	}

	resolved, err := coord.Wait("upload", QueueGraphics, 10, Tag(1))
	if err != nil {
		t.Fatalf("Wait returned an error: %v", err)
	}
	if resolved {
		t.Fatal("Wait(10) with nothing signalled yet should not resolve")
	}
	if err := coord.Signal("upload", QueueTransfer, 10, Tag(2)); err != nil {
		t.Fatalf("Signal returned an error: %v", err)
	}
	sem, _ := coord.inner.Semaphore("upload")
	pairs := sem.ResolvePending()
	if len(pairs) != 1 || pairs[0].Signal.Tag != Tag(2) {
		t.Errorf("the pending Wait(10) should resolve against the later Signal(10), got %+v", pairs)
	}
}

func TestCoordinatorWaitDeviceIdleDrainsSubmittedWork(t *testing.T) {
	coord := NewCoordinator(context.Background(), nil)
	defer coord.Close()

	done := make(chan struct{}, 1)
	coord.Submit(QueueGraphics, Tag(1), func() error { done <- struct{}{}; return nil })
	if err := coord.WaitDeviceIdle(context.Background()); err != nil {
		t.Fatalf("WaitDeviceIdle returned an error: %v", err)
	}
	select {
	case <-done:
	default:
		t.Error("WaitDeviceIdle should not return before submitted work has run")
	}
}
