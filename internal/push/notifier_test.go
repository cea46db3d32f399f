package push

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	im "github.com/vbncursed/vkr/wallet-service/internal/models"
)

type fakeGateway struct {
	mu     sync.Mutex
	tokens []string
	fail   bool
}

func (g *fakeGateway) Push(_ context.Context, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return assert.AnError
	}
	g.tokens = append(g.tokens, token)
	return nil
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tokens)
}

func (g *fakeGateway) snapshot() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.tokens...)
}

type fakeRegs struct {
	mu   sync.Mutex
	regs []im.Registration
}

func (f *fakeRegs) RegistrationsForSerial(_ context.Context, serial string) ([]im.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []im.Registration
	for _, r := range f.regs {
		if r.Serial == serial {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestNotifyFansOutToEveryDevice(t *testing.T) {
	gw := &fakeGateway{}
	regs := &fakeRegs{regs: []im.Registration{
		{DeviceID: "D1", Serial: "S1", PushToken: "p1"},
		{DeviceID: "D2", Serial: "S1", PushToken: "p2"},
		{DeviceID: "D3", Serial: "S2", PushToken: "p3"},
	}}
	n := NewNotifier(gw, regs, 2, 0)
	defer n.Shutdown()

	n.NotifySerial("S1")
	require.Eventually(t, func() bool { return gw.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"p1", "p2"}, gw.snapshot())
}

func TestNotifyCoalescesUntilDevicePolls(t *testing.T) {
	gw := &fakeGateway{}
	regs := &fakeRegs{regs: []im.Registration{
		{DeviceID: "D1", Serial: "S1", PushToken: "p1"},
	}}
	n := NewNotifier(gw, regs, 1, 0)
	defer n.Shutdown()

	n.NotifySerial("S1")
	require.Eventually(t, func() bool { return gw.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// устройство еще не опросило сервис: повторные публикации не будят заново
	n.NotifySerial("S1")
	n.NotifySerial("S1")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, gw.count())

	// после опроса побудки снова проходят
	n.DeviceSeen("D1")
	n.NotifySerial("S1")
	require.Eventually(t, func() bool { return gw.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestGatewayFailureDoesNotAffectCaller(t *testing.T) {
	gw := &fakeGateway{fail: true}
	regs := &fakeRegs{regs: []im.Registration{
		{DeviceID: "D1", Serial: "S1", PushToken: "p1"},
	}}
	n := NewNotifier(gw, regs, 1, 1)

	// вызов не блокируется и не возвращает ошибку вызывающему
	n.NotifySerial("S1")
	n.Shutdown()
	assert.Equal(t, 0, gw.count())
}
