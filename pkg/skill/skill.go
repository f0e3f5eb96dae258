// Package skill turns a plain Go function into a skill: a byte-in/byte-out
// entry point the host runtime can invoke, plus the metadata it needs to
// describe the skill to callers.
//
// A skill function receives the capability interface and a typed input:
//
//	// Say hello to the given name.
//	func HelloWorld(ctx context.Context, c csi.Csi, name string) string
//
// Fallible skills return (Out, error). The context parameter is optional.
package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/skillet/pkg/bindings"
	"github.com/jingkaihe/skillet/pkg/csi"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/telemetry"
)

// Skill is a packaged skill function
type Skill struct {
	name        string
	sig         *signature
	description *string
	newCsi      func() csi.Csi

	metadataOnce sync.Once
	metadata     Metadata
	metadataErr  error
}

// Option configures a Skill
type Option func(*Skill)

// WithName sets the name used in logs and traces
func WithName(name string) Option {
	return func(s *Skill) {
		s.name = name
	}
}

// WithDoc sets the description from documentation comment lines
func WithDoc(lines ...string) Option {
	return func(s *Skill) {
		s.description = describe(lines)
	}
}

// WithDescription sets the description verbatim
func WithDescription(description string) Option {
	return func(s *Skill) {
		s.description = &description
	}
}

// WithCsi overrides how Run obtains its capability interface. The factory
// may return nil to signal that no host is available.
func WithCsi(factory func() csi.Csi) Option {
	return func(s *Skill) {
		s.newCsi = factory
	}
}

// hostCsi is the default capability factory
func hostCsi() csi.Csi {
	host := bindings.BoundHost()
	if host == nil {
		return nil
	}
	return bindings.NewHostCsi(host)
}

// Package checks the shape of fn and returns the packaged skill
func Package(fn any, opts ...Option) (*Skill, error) {
	sig, err := inspect(fn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot package skill")
	}

	s := &Skill{
		sig:    sig,
		newCsi: hostCsi,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		s.name = sig.fn.Type().String()
	}
	return s, nil
}

// MustPackage is like Package but panics on an unsupported function
func MustPackage(fn any, opts ...Option) *Skill {
	s, err := Package(fn, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// New packages an infallible skill function
func New[In, Out any](fn func(context.Context, csi.Csi, In) Out, opts ...Option) *Skill {
	return MustPackage(fn, opts...)
}

// NewFallible packages a skill function that may fail
func NewFallible[In, Out any](fn func(context.Context, csi.Csi, In) (Out, error), opts ...Option) *Skill {
	return MustPackage(fn, opts...)
}

// Name returns the name of the skill
func (s *Skill) Name() string {
	return s.name
}

// Run is the entry point used by the host runtime. It decodes input, calls
// the skill with the production capability interface and encodes the result.
// Every failure, including a panic, is returned as an *Error.
func (s *Skill) Run(ctx context.Context, input []byte) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var output []byte
	err := telemetry.WithSpan(ctx, "skill.run", func(ctx context.Context) error {
		c, err := s.capability()
		if err != nil {
			return err
		}
		output, err = s.Invoke(ctx, c, input)
		return err
	}, attribute.String("skill.name", s.name), attribute.Int("skill.input_bytes", len(input)))
	if err != nil {
		return nil, err
	}
	return output, nil
}

// capability obtains the capability interface for Run. A panicking factory
// is reported as an internal error.
func (s *Skill) capability() (c csi.Csi, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = internal(fmt.Sprint(r))
		}
	}()

	c = s.newCsi()
	if c == nil {
		return nil, internal("no host runtime is bound to this process")
	}
	return c, nil
}

// Invoke runs the skill against an explicit capability interface
func (s *Skill) Invoke(ctx context.Context, c csi.Csi, input []byte) (output []byte, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.G(ctx).WithField("skill", s.name)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Debug("skill panicked")
			output = nil
			err = internal(fmt.Sprint(r))
		}
	}()

	in := reflect.New(s.sig.input)
	if err := json.Unmarshal(input, in.Interface()); err != nil {
		log.WithError(err).Debug("failed to decode skill input")
		return nil, invalidInput(err)
	}

	log.Debug("invoking skill")
	result, callErr := s.sig.call(ctx, c, in.Elem())
	if callErr != nil {
		log.WithError(callErr).Debug("skill returned an error")
		return nil, internal(callErr.Error())
	}

	output, err = json.Marshal(result.Interface())
	if err != nil {
		return nil, internal(errors.Wrap(err, "failed to encode skill output").Error())
	}
	return output, nil
}
