package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type animationLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartAnimations switches every animation to 2x speed, starts them, and
// begins clicking play buttons every play interval. A loop that is already
// running is stopped first. The loop ends with StopAnimations or when ctx
// is done; callers that want a time limit bound WaitAnimations themselves.
func (r *Runner) StartAnimations(ctx context.Context) (AnimationSetup, error) {
	setup, err := r.page.Animations().Prepare(ctx)
	if err != nil {
		return setup, fmt.Errorf("failed to prepare animations: %w", err)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	loop := &animationLoop{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	prev := r.anim
	r.anim = loop
	r.mu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	r.logger.Info("Animations started.",
		zap.Int("speed_toggled", setup.SpeedToggled),
		zap.Int("started", setup.Started),
		zap.Duration("play_interval", r.cfg.PlayInterval))

	go func() {
		defer close(loop.done)
		defer cancel()
		r.playLoop(loopCtx)
	}()
	return setup, nil
}

func (r *Runner) playLoop(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(r.cfg.PlayInterval), 1)
	anim := r.page.Animations()
	clicks := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			r.logger.Info("Animation loop stopped.", zap.Int("play_clicks", clicks))
			return
		}
		n, err := anim.Play(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.logger.Warn("Play click failed.", zap.Error(err))
			continue
		}
		clicks += n
	}
}

// StopAnimations ends the animation loop and waits for it to exit. It
// reports whether a loop was running.
func (r *Runner) StopAnimations() bool {
	r.mu.Lock()
	loop := r.anim
	r.anim = nil
	r.mu.Unlock()
	if loop == nil {
		return false
	}
	loop.cancel()
	<-loop.done
	return true
}

// AnimationsRunning reports whether the animation loop is active.
func (r *Runner) AnimationsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.anim == nil {
		return false
	}
	select {
	case <-r.anim.done:
		return false
	default:
		return true
	}
}

// WaitAnimations blocks until the animation loop ends on its own or ctx is
// done.
func (r *Runner) WaitAnimations(ctx context.Context) {
	r.mu.Lock()
	loop := r.anim
	r.mu.Unlock()
	if loop == nil {
		return
	}
	select {
	case <-loop.done:
	case <-ctx.Done():
	}
}
