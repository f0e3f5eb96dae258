package skill

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/csi"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	csiType     = reflect.TypeOf((*csi.Csi)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// signature is the checked shape of a packaged function
type signature struct {
	fn          reflect.Value
	withContext bool
	capability  reflect.Type
	input       reflect.Type
	output      reflect.Type
	fallible    bool
}

// inspect accepts
//
//	func([context.Context,] C, In) Out
//	func([context.Context,] C, In) (Out, error)
//
// where C is an interface type satisfied by csi.Csi.
func inspect(fn any) (*signature, error) {
	if fn == nil {
		return nil, errors.New("skill function is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, errors.Errorf("skill must be a function, got %s", t)
	}
	if v.IsNil() {
		return nil, errors.New("skill function is nil")
	}
	if t.IsVariadic() {
		return nil, errors.Errorf("skill function %s must not be variadic", t)
	}

	sig := &signature{fn: v}

	params := make([]reflect.Type, 0, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		params = append(params, t.In(i))
	}
	if len(params) == 3 {
		if params[0] != contextType {
			return nil, errors.Errorf("first parameter of %s must be context.Context", t)
		}
		sig.withContext = true
		params = params[1:]
	}
	if len(params) != 2 {
		return nil, errors.Errorf("skill function %s must take a capability interface and an input", t)
	}

	capability := params[0]
	if capability.Kind() != reflect.Interface || !csiType.Implements(capability) {
		return nil, errors.Errorf("capability parameter %s of %s must be an interface satisfied by csi.Csi", capability, t)
	}
	sig.capability = capability

	input := params[1]
	if !encodable(input) {
		return nil, errors.Errorf("input type %s of %s cannot be decoded from JSON", input, t)
	}
	sig.input = input

	switch t.NumOut() {
	case 1:
		if t.Out(0) == errorType {
			return nil, errors.Errorf("skill function %s must return an output value", t)
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, errors.Errorf("second result of %s must be error", t)
		}
		sig.fallible = true
	default:
		return nil, errors.Errorf("skill function %s must return an output, optionally followed by an error", t)
	}
	output := t.Out(0)
	if !encodable(output) {
		return nil, errors.Errorf("output type %s of %s cannot be encoded as JSON", output, t)
	}
	sig.output = output

	return sig, nil
}

func encodable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return false
	default:
		return true
	}
}

// call invokes the function. The returned error is only set for fallible
// functions that failed.
func (s *signature) call(ctx context.Context, c csi.Csi, input reflect.Value) (reflect.Value, error) {
	args := make([]reflect.Value, 0, 3)
	if s.withContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	if c == nil {
		args = append(args, reflect.Zero(s.capability))
	} else {
		args = append(args, reflect.ValueOf(c))
	}
	args = append(args, input)

	results := s.fn.Call(args)
	if s.fallible && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}
	return results[0], nil
}
