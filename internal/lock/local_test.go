package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalFamilyLock_SerializesSameFamily(t *testing.T) {
	l := NewLocalFamilyLock()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Synchronized(context.Background(), "family-a", func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Synchronized() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent critical sections = %d, want 1", maxActive)
	}
}

func TestLocalFamilyLock_IndependentFamiliesDoNotContend(t *testing.T) {
	l := NewLocalFamilyLock()
	release := make(chan struct{})
	entered := make(chan struct{})

	go func() {
		_ = l.Synchronized(context.Background(), "family-a", func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- l.Synchronized(context.Background(), "family-b", func(ctx context.Context) error {
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Synchronized() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("family-b blocked behind family-a")
	}
	close(release)
}

func TestLocalFamilyLock_PropagatesFnError(t *testing.T) {
	l := NewLocalFamilyLock()
	wantErr := errors.New("activation rejected")

	err := l.Synchronized(context.Background(), "family-a", func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Synchronized() error = %v, want %v", err, wantErr)
	}
}

func TestLocalFamilyLock_CancelledContext(t *testing.T) {
	l := NewLocalFamilyLock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Synchronized(ctx, "family-a", func(ctx context.Context) error {
		t.Error("fn ran despite cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Synchronized() error = %v, want context.Canceled", err)
	}
}
