package mirror

import (
	"fmt"
	"strconv"

	"github.com/muurk/segclock/internal/display"
	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

// Message kinds.
const (
	KindTime       = "time"
	KindNumber     = "number"
	KindString     = "string"
	KindBrightness = "brightness"
)

// Sink receives mirrored paints. *Publisher is the MQTT implementation.
type Sink interface {
	Publish(kind, text string) error
}

// Painter is a display.Painter that forwards to an inner painter and then
// mirrors what was shown to a Sink.
type Painter struct {
	inner display.Painter
	sink  Sink
}

// Wrap returns a Painter mirroring inner to sink.
func Wrap(inner display.Painter, sink Sink) *Painter {
	return &Painter{inner: inner, sink: sink}
}

// Unwrap returns the wrapped painter
func (p *Painter) Unwrap() display.Painter {
	return p.inner
}

// ShowTime paints and mirrors the time
func (p *Painter) ShowTime(hour, minute int) error {
	if err := p.inner.ShowTime(hour, minute); err != nil {
		return err
	}
	p.mirror(KindTime, display.FormatTime(hour, minute))
	return nil
}

// ShowNumber paints and mirrors a number
func (p *Painter) ShowNumber(n int) error {
	if err := p.inner.ShowNumber(n); err != nil {
		return err
	}
	p.mirror(KindNumber, fmt.Sprintf("%4d", n))
	return nil
}

// ShowString paints and mirrors a string
func (p *Painter) ShowString(s string) error {
	if err := p.inner.ShowString(s); err != nil {
		return err
	}
	p.mirror(KindString, s)
	return nil
}

// SetBrightness passes through to the inner painter when it is a
// display.Dimmer. Painters without brightness control accept and ignore it.
func (p *Painter) SetBrightness(level int) error {
	level = display.ClampBrightness(level)
	if d, ok := p.inner.(display.Dimmer); ok {
		if err := d.SetBrightness(level); err != nil {
			return err
		}
	}
	p.mirror(KindBrightness, strconv.Itoa(level))
	return nil
}

func (p *Painter) mirror(kind, text string) {
	if err := p.sink.Publish(kind, text); err != nil {
		logging.Warn("Display mirror publish failed",
			zap.String("kind", kind),
			zap.Error(err),
		)
	}
}

var (
	_ display.Painter = (*Painter)(nil)
	_ display.Dimmer  = (*Painter)(nil)
)
