// Package methods implements the default MethodProcessor (§4.7, §6) by
// reflecting over registered receiver structs — the same dynamic-dispatch
// idiom as the teacher's server/service.go, adapted from the classic RPC
// func(args, reply *T) error signature to msgpack-rpc's positional params
// array: func (receiver) Name(arg1 T1, arg2 T2, ...) (Reply, error). The
// params array decodes positionally onto the method's declared argument
// types. Method names on the wire keep the teacher's "Service.Method"
// convention (e.g. "Arith.Add").
package methods

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-msgpack/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// methodType stores the reflection metadata for one RPC-compatible method.
type methodType struct {
	method  reflect.Method
	argTypes []reflect.Type // declared types of the method's non-receiver parameters
}

// service wraps a registered receiver and the subset of its exported
// methods matching the required signature.
type service struct {
	name    string
	rcvr    reflect.Value
	typ     reflect.Type
	methods map[string]*methodType
}

// newService scans rcvr (a pointer to a struct) for exported methods of the
// form func(args...) (Reply, error). Non-matching methods are silently
// skipped, exactly as the teacher does.
func newService(rcvr any) (*service, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("methods: receiver must be a pointer to a struct, got %T", rcvr)
	}

	svc := &service{
		name:    typ.Elem().Name(),
		rcvr:    reflect.ValueOf(rcvr),
		typ:     typ,
		methods: make(map[string]*methodType),
	}

	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if m.Type.NumOut() != 2 || m.Type.Out(1) != errorType {
			continue
		}
		argTypes := make([]reflect.Type, 0, m.Type.NumIn()-1)
		for a := 1; a < m.Type.NumIn(); a++ {
			argTypes = append(argTypes, m.Type.In(a))
		}
		svc.methods[m.Name] = &methodType{method: m, argTypes: argTypes}
	}
	return svc, nil
}

// Registry dispatches by "Service.Method" name across any number of
// registered receivers, implementing the default MethodProcessor (§6).
type Registry struct {
	services map[string]*service
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]*service)}
}

// Register scans rcvr's exported methods and makes them callable under
// "<StructName>.<Method>".
func (r *Registry) Register(rcvr any) error {
	svc, err := newService(rcvr)
	if err != nil {
		return err
	}
	r.services[svc.name] = svc
	return nil
}

// lookup splits "Service.Method" and finds the matching registered method.
func (r *Registry) lookup(fullName message.MethodName) (*service, *methodType, bool) {
	parts := strings.SplitN(string(fullName), ".", 2)
	if len(parts) != 2 {
		return nil, nil, false
	}
	svc, ok := r.services[parts[0]]
	if !ok {
		return nil, nil, false
	}
	m, ok := svc.methods[parts[1]]
	if !ok {
		return nil, nil, false
	}
	return svc, m, true
}

// invoke decodes params positionally onto the method's declared argument
// types and calls it via reflection, returning the reply value (still as a
// reflect.Value) and any error the method itself returned.
func invoke(svc *service, m *methodType, params message.Raw) (reflect.Value, error) {
	argPtrs := make([]any, len(m.argTypes))
	argVals := make([]reflect.Value, len(m.argTypes))
	for i, t := range m.argTypes {
		v := reflect.New(t)
		argVals[i] = v
		argPtrs[i] = v.Interface()
	}

	if len(argPtrs) > 0 {
		dec := codec.NewDecoderBytes([]byte(params), message.Handle)
		if err := dec.Decode(&argPtrs); err != nil {
			return reflect.Value{}, fmt.Errorf("methods: decoding params: %w", err)
		}
	}

	callArgs := make([]reflect.Value, 0, len(argVals)+1)
	callArgs = append(callArgs, svc.rcvr)
	for _, v := range argVals {
		callArgs = append(callArgs, v.Elem())
	}

	results := m.method.Func.Call(callArgs)
	reply, errVal := results[0], results[1]
	if !errVal.IsNil() {
		return reflect.Value{}, errVal.Interface().(error)
	}
	return reply, nil
}
