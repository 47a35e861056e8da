package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pix-storefront/internal/domain"
)

type fakeGateway struct {
	mu      sync.Mutex
	calls   []domain.ChargeRequest
	charge  domain.PixCharge
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (g *fakeGateway) CreateCharge(_ context.Context, req domain.ChargeRequest) (domain.PixCharge, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.block != nil {
		<-g.block
	}
	return g.charge, g.err
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type recordedNotes struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordedNotes) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordedNotes) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func fillForm(c *Controller) {
	c.SetName("Ana")
	c.SetCPF("12345678901")
	c.SetEmail("a@b.com")
	c.SetPhone("11987654321")
}

func TestSubmitSuccess(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "00020126...", Identifier: "abc123"}}
	c := NewController(gw, Plan{Name: "Promocional", Amount: 9.90})
	fillForm(c)

	if got := c.Snapshot().Form.CPF; got != "123.456.789-01" {
		t.Fatalf("CPF должен отображаться в маске, получено %q", got)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := c.Snapshot()
	if snap.State != StateShowingCode || snap.PixCode != "00020126..." || snap.Identifier != "abc123" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	req := gw.calls[0]
	if req.Amount != 9.90 || req.Description != "Assinatura Promocional" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Client.CPF != "12345678901" || req.Client.Phone != "11987654321" {
		t.Fatalf("CPF и телефон должны уходить цифрами: %+v", req.Client)
	}
}

func TestSubmitValidationKeepsState(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "x"}}
	notes := &recordedNotes{}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9}, WithNotifier(notes))
	c.SetName("Ana")
	c.SetCPF("123")
	c.SetEmail("a@b.com")

	err := c.Submit(context.Background())
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "phone" {
		t.Fatalf("expected phone field error, got %v", err)
	}
	if c.State() != StateCollecting {
		t.Fatalf("state = %s, want %s", c.State(), StateCollecting)
	}
	if gw.callCount() != 0 {
		t.Fatal("gateway must not be called on validation failure")
	}
	if c.Snapshot().FieldError == nil || !notes.last().Destructive {
		t.Fatal("field error and notification expected")
	}
}

func TestSubmitRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []float64{0, -19.9} {
		gw := &fakeGateway{charge: domain.PixCharge{PixCode: "x"}}
		notes := &recordedNotes{}
		c := NewController(gw, Plan{Name: "Grátis", Amount: amount}, WithNotifier(notes))
		fillForm(c)

		if err := c.Submit(context.Background()); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
		if gw.callCount() != 0 {
			t.Fatalf("amount %v: gateway must not be called", amount)
		}
		if c.State() != StateCollecting {
			t.Fatalf("amount %v: state = %s, want %s", amount, c.State(), StateCollecting)
		}
		if n := notes.last(); n.Description != MsgFillAllFields || !n.Destructive {
			t.Fatalf("amount %v: unexpected notification %+v", amount, n)
		}
	}
}

func TestSubmitFailureAndRetry(t *testing.T) {
	gw := &fakeGateway{err: errors.New("status=500")}
	notes := &recordedNotes{}
	c := NewController(gw, Plan{Name: "3 Meses", Amount: 19.9}, WithNotifier(notes))
	fillForm(c)

	if err := c.Submit(context.Background()); !errors.Is(err, ErrGenerateFailed) {
		t.Fatalf("expected ErrGenerateFailed, got %v", err)
	}
	snap := c.Snapshot()
	if snap.State != StateError || snap.Error != MsgGenerateFailed || snap.Loading {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if notes.last().Description != MsgGenerateFailed {
		t.Fatalf("notification = %+v", notes.last())
	}

	gw.err = nil
	gw.charge = domain.PixCharge{PixCode: "00020126..."}
	if err := c.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.State() != StateShowingCode {
		t.Fatalf("state after retry = %s", c.State())
	}
	if err := c.Retry(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("retry outside error state: %v", err)
	}
}

func TestSubmitMissingPixCode(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{Identifier: "abc"}}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9})
	fillForm(c)

	if err := c.Submit(context.Background()); !errors.Is(err, ErrGenerateFailed) {
		t.Fatalf("expected ErrGenerateFailed, got %v", err)
	}
	if c.State() != StateError {
		t.Fatalf("state = %s", c.State())
	}
}

func TestSubmitInFlightGuard(t *testing.T) {
	gw := &fakeGateway{
		charge:  domain.PixCharge{PixCode: "code"},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9})
	fillForm(c)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-gw.entered

	if c.State() != StateSubmitting {
		t.Fatalf("state = %s, want %s", c.State(), StateSubmitting)
	}
	if err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("second submit: %v", err)
	}
	close(gw.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if gw.callCount() != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.callCount())
	}
}

func TestCloseDiscardsLateResponse(t *testing.T) {
	gw := &fakeGateway{
		charge:  domain.PixCharge{PixCode: "late"},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	closed := 0
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9}, WithOnClose(func() { closed++ }))
	fillForm(c)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-gw.entered
	c.Close()
	close(gw.block)

	if err := <-done; !errors.Is(err, ErrDiscarded) {
		t.Fatalf("expected ErrDiscarded, got %v", err)
	}
	snap := c.Snapshot()
	if snap.State != StateCollecting || snap.PixCode != "" || snap.Loading {
		t.Fatalf("late response must not change state: %+v", snap)
	}
	if closed != 1 {
		t.Fatalf("onClose calls = %d", closed)
	}
}

func TestCloseIdempotent(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "code"}}
	closed := 0
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9}, WithOnClose(func() { closed++ }))

	c.Close()
	first := c.Snapshot()

	fillForm(c)
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	c.Close()
	c.Close()
	second := c.Snapshot()

	if first != second {
		t.Fatalf("close must produce identical reset state: %+v vs %+v", first, second)
	}
	if second.State != StateCollecting || second.PixCode != "" || second.Form != (Form{}) || second.Copied {
		t.Fatalf("unexpected reset state: %+v", second)
	}
	if closed != 3 {
		t.Fatalf("onClose calls = %d, want 3", closed)
	}
}

func TestCopyCode(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "00020126..."}}
	clip := &fakeClipboard{}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9}, WithClipboard(clip), WithCopiedFor(20*time.Millisecond))

	if err := c.CopyCode(); !errors.Is(err, ErrNoCode) {
		t.Fatalf("copy without code: %v", err)
	}
	fillForm(c)
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := c.CopyCode(); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if clip.text != "00020126..." || !c.Copied() {
		t.Fatalf("clipboard = %q copied = %v", clip.text, c.Copied())
	}
	if c.State() != StateShowingCode {
		t.Fatalf("copy must not change state, got %s", c.State())
	}

	deadline := time.Now().Add(time.Second)
	for c.Copied() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Copied() {
		t.Fatal("copied flag must reset")
	}
}

func TestCopyCodeFailure(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "code"}}
	notes := &recordedNotes{}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9}, WithClipboard(&fakeClipboard{err: errors.New("no display")}), WithNotifier(notes))
	fillForm(c)
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := c.CopyCode(); err == nil {
		t.Fatal("expected clipboard error")
	}
	if c.State() != StateShowingCode || c.Copied() {
		t.Fatalf("clipboard failure must not affect state: %+v", c.Snapshot())
	}
	if n := notes.last(); n.Description != MsgCopyFailed || !n.Destructive {
		t.Fatalf("notification = %+v", n)
	}
}

func TestShowAutoGenerate(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "auto"}}
	c := NewController(gw, Plan{Name: "30 Dias", Amount: 9.9}, WithIdentity(DefaultPlaceholder), WithAutoGenerate())

	if err := c.Show(context.Background()); err != nil {
		t.Fatalf("show: %v", err)
	}
	if c.PixCode() != "auto" {
		t.Fatalf("pix code = %q", c.PixCode())
	}
	if err := c.Show(context.Background()); err != nil {
		t.Fatalf("second show: %v", err)
	}
	if gw.callCount() != 1 {
		t.Fatalf("show must not regenerate an existing code, calls = %d", gw.callCount())
	}
	if gw.calls[0].Client != domain.Customer(DefaultPlaceholder) {
		t.Fatalf("placeholder identity expected, got %+v", gw.calls[0].Client)
	}
}

func TestShowWithoutAutoGenerate(t *testing.T) {
	gw := &fakeGateway{charge: domain.PixCharge{PixCode: "code"}}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9})
	if err := c.Show(context.Background()); err != nil {
		t.Fatalf("show: %v", err)
	}
	if gw.callCount() != 0 {
		t.Fatal("show must not submit without auto generation")
	}
}

func TestShowWhileInFlight(t *testing.T) {
	gw := &fakeGateway{
		charge:  domain.PixCharge{PixCode: "code"},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := NewController(gw, Plan{Name: "1 Ano", Amount: 49.9}, WithIdentity(DefaultPlaceholder), WithAutoGenerate())

	done := make(chan error, 1)
	go func() { done <- c.Show(context.Background()) }()
	<-gw.entered
	if err := c.Show(context.Background()); err != nil {
		t.Fatalf("show while loading: %v", err)
	}
	close(gw.block)
	if err := <-done; err != nil {
		t.Fatalf("first show: %v", err)
	}
	if gw.callCount() != 1 {
		t.Fatalf("calls = %d, want 1", gw.callCount())
	}
}
