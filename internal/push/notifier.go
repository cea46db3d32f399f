package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	im "github.com/vbncursed/vkr/wallet-service/internal/models"
)

// Gateway — внешний шлюз доставки побудок
type Gateway interface {
	Push(ctx context.Context, pushToken string) error
}

// RegistrationSource — текущие регистрации устройств на серийник
type RegistrationSource interface {
	RegistrationsForSerial(ctx context.Context, serial string) ([]im.Registration, error)
}

// Notifier — фоновая рассылка побудок. Публикация лишь ставит серийник в
// очередь и никогда не блокируется и не откатывается из-за шлюза. Пока
// устройство не опросило сервис после побудки, повторные побудки по тому же
// (устройство, серийник) подавляются.
type Notifier struct {
	gw      Gateway
	regs    RegistrationSource
	queue   chan string
	retries uint64

	mu          sync.Mutex
	pending     map[string]bool     // серийник уже в очереди
	outstanding map[string]struct{} // device|serial: побудка отправлена, опроса еще не было

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewNotifier(gw Gateway, regs RegistrationSource, workers int, retries uint64) *Notifier {
	if workers <= 0 {
		workers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		gw:          gw,
		regs:        regs,
		queue:       make(chan string, 256),
		retries:     retries,
		pending:     make(map[string]bool),
		outstanding: make(map[string]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	for i := 0; i < workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	return n
}

// NotifySerial — поставить серийник в очередь рассылки; повторные вызовы до
// начала рассылки схлопываются в один
func (n *Notifier) NotifySerial(serial string) {
	n.mu.Lock()
	if n.pending[serial] {
		n.mu.Unlock()
		return
	}
	n.pending[serial] = true
	n.mu.Unlock()

	select {
	case n.queue <- serial:
	default:
		// очередь полна: не блокируем публикацию
		go func() {
			select {
			case n.queue <- serial:
			case <-n.ctx.Done():
			}
		}()
	}
}

// DeviceSeen — устройство опросило сервис; подавление его побудок снимается
func (n *Notifier) DeviceSeen(deviceID string) {
	prefix := deviceID + "|"
	n.mu.Lock()
	for k := range n.outstanding {
		if strings.HasPrefix(k, prefix) {
			delete(n.outstanding, k)
		}
	}
	n.mu.Unlock()
}

// Shutdown — дождаться воркеров; недоставленные побудки теряются, устройства
// доберут изменения обычным опросом
func (n *Notifier) Shutdown() {
	n.cancel()
	n.wg.Wait()
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case serial := <-n.queue:
			n.fanOut(serial)
		case <-n.ctx.Done():
			return
		}
	}
}

func (n *Notifier) fanOut(serial string) {
	n.mu.Lock()
	delete(n.pending, serial)
	n.mu.Unlock()

	regs, err := n.regs.RegistrationsForSerial(n.ctx, serial)
	if err != nil {
		log.Printf("push: list registrations serial=%s: %v", serial, err)
		return
	}
	for _, r := range regs {
		key := r.DeviceID + "|" + r.Serial
		n.mu.Lock()
		if _, dup := n.outstanding[key]; dup {
			n.mu.Unlock()
			continue
		}
		// запись остается в outstanding до опроса устройства (DeviceSeen)
		n.outstanding[key] = struct{}{}
		n.mu.Unlock()

		n.wg.Add(1)
		go n.deliver(r)
	}
}

// deliver — доставка одной побудки с экспоненциальным бэкоффом. После
// исчерпания попыток устройство остается недостижимым до собственного опроса.
func (n *Notifier) deliver(r im.Registration) {
	defer n.wg.Done()
	op := func() error {
		return n.gw.Push(n.ctx, r.PushToken)
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), n.retries), n.ctx)
	if err := backoff.Retry(op, bo); err != nil {
		log.Printf("push: giving up device=%s serial=%s: %v", r.DeviceID, r.Serial, err)
	}
}

// HTTPGateway — шлюз побудок поверх HTTP POST. Пустой URL отключает доставку
// (локальная разработка).
type HTTPGateway struct {
	URL    string
	Client *http.Client
}

func NewHTTPGateway(url string) *HTTPGateway {
	return &HTTPGateway{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Push — контент-фри побудка: устройству передается только его push-токен
func (g *HTTPGateway) Push(ctx context.Context, pushToken string) error {
	if g.URL == "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{"push_token": pushToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("push gateway: status %d", resp.StatusCode)
	}
	return nil
}
