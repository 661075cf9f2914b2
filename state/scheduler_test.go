package state

import (
	"context"
	"testing"
	"time"
)

func testEnv(t *testing.T) (*State, chan func(*State) error, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	dispatchChan := make(chan func(*State) error, 10)
	env := &Env{
		DispatchChannel: dispatchChan,
		Context:         ctx,
		Cancel: func(err error) {
			cancel()
		},
	}
	return &State{Env: env}, dispatchChan, cancel
}

func TestDispatch(t *testing.T) {
	state, dispatchChan, cancel := testEnv(t)
	defer cancel()

	var called bool
	state.Dispatch(func(s *State) error {
		called = true
		return nil
	})

	select {
	case f := <-dispatchChan:
		if err := f(state); err != nil {
			t.Errorf("Dispatch error: %v", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timed out waiting for dispatched function")
	}

	if !called {
		t.Fatal("Dispatch function was not executed")
	}
}

func TestDispatchWait(t *testing.T) {
	state, dispatchChan, cancel := testEnv(t)
	defer cancel()

	go func() {
		f := <-dispatchChan
		_ = f(state)
	}()

	res, err := state.DispatchWait(func(s *State) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DispatchWait error: %v", err)
	}
	if res != 42 {
		t.Fatalf("Expected 42, got %v", res)
	}
}

func TestScheduleTask(t *testing.T) {
	state, dispatchChan, cancel := testEnv(t)
	defer cancel()

	var taskCalled bool
	state.ScheduleTask(func(s *State) error {
		taskCalled = true
		return nil
	}, 50*time.Millisecond)

	select {
	case f := <-dispatchChan:
		if err := f(state); err != nil {
			t.Errorf("Scheduled task error: %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("No task was scheduled")
	}

	if !taskCalled {
		t.Fatal("Scheduled task was not executed")
	}
}

func TestRepeatTask(t *testing.T) {
	state, dispatchChan, cancel := testEnv(t)
	defer cancel()

	var count int
	state.RepeatTask(func(s *State) error {
		count++
		if count >= 3 {
			cancel()
		}
		return nil
	}, 20*time.Millisecond)

loop:
	for {
		select {
		case f := <-dispatchChan:
			if err := f(state); err != nil {
				t.Fatalf("RepeatTask error: %v", err)
			}
		case <-state.Context.Done():
			break loop
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for RepeatTask to execute")
		}
	}
	if count < 3 {
		t.Fatalf("Expected at least 3 executions, got %d", count)
	}
}
