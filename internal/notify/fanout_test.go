package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/ports"
)

func newNotifier(name string, enabled bool) *MockNotifier {
	n := &MockNotifier{}
	n.On("Name").Return(name).Maybe()
	n.On("IsEnabled").Return(enabled)
	return n
}

func TestFanout_Dispatch_AllComplete(t *testing.T) {
	a := newNotifier("a", true)
	a.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	b := newNotifier("b", true)
	b.On("Send", mock.Anything, mock.Anything).Return(errors.New("boom")).Once()
	c := newNotifier("c", false)

	report := NewFanout().Dispatch(context.Background(), models.NotificationMessage{Title: "t"},
		[]ports.Notifier{a, b, c}, time.Second)

	assert.Equal(t, DispatchReport{Enabled: 2, Completed: 2, Failed: 1}, report)
	a.AssertExpectations(t)
	b.AssertExpectations(t)
	c.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestFanout_Dispatch_NoneEnabled(t *testing.T) {
	a := newNotifier("a", false)
	b := newNotifier("b", false)

	report := NewFanout().Dispatch(context.Background(), models.NotificationMessage{},
		[]ports.Notifier{a, nil, b}, time.Second)

	assert.Equal(t, DispatchReport{}, report)
	a.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	b.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestFanout_Dispatch_DeadlineBoundsSlowNotifier(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := newNotifier("slow", true)
	slow.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)
	var fastSends atomic.Int32
	fast1 := newNotifier("fast1", true)
	fast1.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { fastSends.Add(1) }).Return(nil)
	fast2 := newNotifier("fast2", true)
	fast2.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { fastSends.Add(1) }).Return(nil)

	deadline := 200 * time.Millisecond
	start := time.Now()
	report := NewFanout().Dispatch(context.Background(), models.NotificationMessage{},
		[]ports.Notifier{slow, fast1, fast2}, deadline)
	elapsed := time.Since(start)

	assert.True(t, report.TimedOut)
	assert.Equal(t, 3, report.Enabled)
	assert.Less(t, report.Completed, 3)
	assert.GreaterOrEqual(t, elapsed, deadline)
	assert.Less(t, elapsed, deadline+time.Second)

	assert.Eventually(t, func() bool { return fastSends.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestFanout_Dispatch_CallerCancelled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := newNotifier("slow", true)
	slow.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-release }).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	report := NewFanout().Dispatch(ctx, models.NotificationMessage{}, []ports.Notifier{slow}, time.Minute)

	assert.True(t, report.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFanout_Dispatch_SendContextSurvivesCancel(t *testing.T) {
	var sendCtx context.Context
	n := newNotifier("n", true)
	n.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sendCtx = args.Get(0).(context.Context)
	}).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	NewFanout().Dispatch(ctx, models.NotificationMessage{}, []ports.Notifier{n}, time.Second)
	cancel()

	if assert.NotNil(t, sendCtx) {
		assert.NoError(t, sendCtx.Err())
	}
}

func TestFanout_Dispatch_RecoversPanic(t *testing.T) {
	bad := newNotifier("bad", true)
	bad.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("kaboom") }).Return(nil)
	good := newNotifier("good", true)
	good.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	var report DispatchReport
	assert.NotPanics(t, func() {
		report = NewFanout().Dispatch(context.Background(), models.NotificationMessage{},
			[]ports.Notifier{bad, good}, time.Second)
	})

	assert.Equal(t, DispatchReport{Enabled: 2, Completed: 2, Failed: 1}, report)
	good.AssertExpectations(t)
}
