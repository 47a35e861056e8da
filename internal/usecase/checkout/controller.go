package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pix-storefront/internal/domain"
)

// State — шаг формы оплаты.
type State string

const (
	StateCollecting  State = "collecting-input"
	StateSubmitting  State = "submitting"
	StateShowingCode State = "showing-code"
	StateError       State = "error"
)

const (
	MsgFillAllFields  = "Preencha todos os campos"
	MsgGenerateFailed = "Erro ao gerar pagamento. Tente novamente."
	MsgCopied         = "Código PIX copiado para a área de transferência"
	MsgCopyFailed     = "Não foi possível copiar o código"

	DefaultCopiedFor = 3 * time.Second
)

var (
	// ErrSubmitInFlight — повторный вызов, пока предыдущий запрос не завершился.
	ErrSubmitInFlight = errors.New("checkout: submit already in flight")
	// ErrInvalidTransition — действие недоступно в текущем состоянии.
	ErrInvalidTransition = errors.New("checkout: action not allowed in current state")
	// ErrGenerateFailed — шлюз не вернул код.
	ErrGenerateFailed = errors.New("checkout: pix code generation failed")
	// ErrDiscarded — ответ пришёл после закрытия формы.
	ErrDiscarded = errors.New("checkout: response discarded after close")
	// ErrNoCode — копировать нечего.
	ErrNoCode = errors.New("checkout: no pix code to copy")
	// ErrInvalidAmount — у тарифа нет положительной суммы.
	ErrInvalidAmount = errors.New("checkout: plan amount must be positive")
)

// Gateway создаёт PIX-кобрансу.
type Gateway interface {
	CreateCharge(ctx context.Context, req domain.ChargeRequest) (domain.PixCharge, error)
}

// Clipboard пишет текст в системный буфер обмена.
type Clipboard interface {
	WriteAll(text string) error
}

// Notification — всплывающее сообщение для пользователя.
type Notification struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier показывает уведомления.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc адаптирует функцию к Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Plan — выбранный тариф.
type Plan struct {
	Name   string
	Amount float64
}

// Description возвращает описание кобрансы для тарифа.
func (p Plan) Description() string {
	if p.Name == "" {
		return ""
	}
	return "Assinatura " + p.Name
}

type Option func(*Controller)

func WithIdentity(source IdentitySource) Option {
	return func(c *Controller) {
		if source != nil {
			c.identity = source
		}
	}
}

func WithClipboard(clipboard Clipboard) Option {
	return func(c *Controller) { c.clipboard = clipboard }
}

func WithNotifier(notifier Notifier) Option {
	return func(c *Controller) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithOnClose задаёт колбэк, который прячет форму у хоста.
func WithOnClose(fn func()) Option {
	return func(c *Controller) { c.onClose = fn }
}

// WithAutoGenerate включает генерацию кода при показе формы.
func WithAutoGenerate() Option {
	return func(c *Controller) { c.autoGenerate = true }
}

func WithCopiedFor(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.copiedFor = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller ведёт пользователя от ввода данных до показа PIX-кода.
// Методы безопасны для вызова из нескольких горутин.
type Controller struct {
	gateway      Gateway
	plan         Plan
	identity     IdentitySource
	clipboard    Clipboard
	notifier     Notifier
	onClose      func()
	autoGenerate bool
	copiedFor    time.Duration
	log          zerolog.Logger

	mu         sync.Mutex
	state      State
	form       Form
	pixCode    string
	identifier string
	loading    bool
	copied     bool
	fieldErr   *FieldError
	errMsg     string
	generation uint64
	copySeq    uint64
	copyTimer  *time.Timer
}

func NewController(gateway Gateway, plan Plan, opts ...Option) *Controller {
	c := &Controller{
		gateway:   gateway,
		plan:      plan,
		identity:  FormIdentity{},
		notifier:  NotifierFunc(func(Notification) {}),
		copiedFor: DefaultCopiedFor,
		log:       zerolog.Nop(),
		state:     StateCollecting,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot — состояние контроллера для отрисовки.
type Snapshot struct {
	State      State
	Form       Form
	PixCode    string
	Identifier string
	Loading    bool
	Copied     bool
	FieldError *FieldError
	Error      string
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.state,
		Form:       c.form,
		PixCode:    c.pixCode,
		Identifier: c.identifier,
		Loading:    c.loading,
		Copied:     c.copied,
		FieldError: c.fieldErr,
		Error:      c.errMsg,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) PixCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pixCode
}

func (c *Controller) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}

func (c *Controller) SetName(v string)  { c.setField(func(f *Form) { f.Name = v }) }
func (c *Controller) SetEmail(v string) { c.setField(func(f *Form) { f.Email = v }) }

// SetCPF сохраняет CPF в маске для отображения.
func (c *Controller) SetCPF(v string) { c.setField(func(f *Form) { f.CPF = FormatCPF(v) }) }

// SetPhone сохраняет телефон в маске для отображения.
func (c *Controller) SetPhone(v string) { c.setField(func(f *Form) { f.Phone = FormatPhone(v) }) }

func (c *Controller) setField(apply func(*Form)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	apply(&c.form)
	c.fieldErr = nil
}

// Submit собирает плательщика и запрашивает кобрансу.
// При ошибке валидации, включая неположительную сумму тарифа, состояние не меняется и шлюз не вызывается.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	if c.state != StateCollecting && c.state != StateError {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	if c.plan.Amount <= 0 {
		c.mu.Unlock()
		c.notifier.Notify(Notification{Title: "Erro", Description: MsgFillAllFields, Destructive: true})
		return ErrInvalidAmount
	}
	customer, err := c.identity.Identity(c.form)
	if err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			c.fieldErr = fieldErr
		}
		c.mu.Unlock()
		c.notifier.Notify(Notification{Title: "Erro", Description: MsgFillAllFields, Destructive: true})
		return err
	}
	c.fieldErr = nil
	c.errMsg = ""
	c.state = StateSubmitting
	c.loading = true
	generation := c.generation
	c.mu.Unlock()

	req := domain.ChargeRequest{
		Amount:      c.plan.Amount,
		Description: c.plan.Description(),
		Client:      customer,
	}
	charge, callErr := c.gateway.CreateCharge(ctx, req)

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		c.log.Debug().Msg("checkout: late response discarded")
		return ErrDiscarded
	}
	c.loading = false
	if callErr != nil || charge.PixCode == "" {
		c.state = StateError
		c.errMsg = MsgGenerateFailed
		c.mu.Unlock()
		c.log.Error().Err(callErr).Msg("checkout: payment error")
		c.notifier.Notify(Notification{Title: "Erro", Description: MsgGenerateFailed, Destructive: true})
		if callErr == nil {
			callErr = errors.New("pix code not received")
		}
		return fmt.Errorf("%w: %w", ErrGenerateFailed, callErr)
	}
	c.state = StateShowingCode
	c.pixCode = charge.PixCode
	c.identifier = charge.Identifier
	c.mu.Unlock()
	return nil
}

// Retry повторяет запрос после ошибки.
func (c *Controller) Retry(ctx context.Context) error {
	if c.State() != StateError {
		return ErrInvalidTransition
	}
	return c.Submit(ctx)
}

// Show вызывается, когда форма становится видимой. С автогенерацией сразу запрашивает код,
// если его ещё нет и ничего не выполняется.
func (c *Controller) Show(ctx context.Context) error {
	if !c.autoGenerate {
		return nil
	}
	c.mu.Lock()
	skip := c.pixCode != "" || c.loading
	c.mu.Unlock()
	if skip {
		return nil
	}
	err := c.Submit(ctx)
	if errors.Is(err, ErrSubmitInFlight) {
		return nil
	}
	return err
}

// CopyCode копирует код в буфер обмена и на время поднимает флаг Copied. Состояние формы не меняется.
func (c *Controller) CopyCode() error {
	c.mu.Lock()
	code := c.pixCode
	c.mu.Unlock()
	if code == "" {
		return ErrNoCode
	}
	if c.clipboard == nil {
		c.notifier.Notify(Notification{Title: "Erro", Description: MsgCopyFailed, Destructive: true})
		return errors.New("checkout: clipboard unavailable")
	}
	if err := c.clipboard.WriteAll(code); err != nil {
		c.log.Warn().Err(err).Msg("checkout: clipboard write failed")
		c.notifier.Notify(Notification{Title: "Erro", Description: MsgCopyFailed, Destructive: true})
		return err
	}

	c.mu.Lock()
	c.copied = true
	c.copySeq++
	seq := c.copySeq
	if c.copyTimer != nil {
		c.copyTimer.Stop()
	}
	c.copyTimer = time.AfterFunc(c.copiedFor, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.copySeq == seq {
			c.copied = false
		}
	})
	c.mu.Unlock()
	c.notifier.Notify(Notification{Title: "Copiado!", Description: MsgCopied})
	return nil
}

// Close сбрасывает форму в исходное состояние и просит хост спрятать её. Повторный вызов безопасен.
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.copySeq++
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
	c.state = StateCollecting
	c.form = Form{}
	c.pixCode = ""
	c.identifier = ""
	c.loading = false
	c.copied = false
	c.fieldErr = nil
	c.errMsg = ""
	onClose := c.onClose
	c.mu.Unlock()
	if onClose != nil {
		onClose()
	}
}
