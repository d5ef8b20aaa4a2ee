package server

import (
	"fmt"
	"reflect"
)

// method is one callable entry of a service. args is nil for methods that
// take no params.
type method struct {
	fn    reflect.Method
	args  reflect.Type
	reply reflect.Type
}

func (m *method) takesParams() bool {
	return m.args != nil
}

type service struct {
	name    string
	rcvr    reflect.Value
	methods map[string]*method
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// newService 扫描 rcvr 上可作为 JSON-RPC 方法暴露的导出方法
func newService(rcvr any) (*service, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("rpc: rcvr must be a pointer, got %v", typ)
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("rpc: rcvr must point to a struct, got %s", typ.Elem().Kind())
	}

	svc := &service{
		name:    typ.Elem().Name(),
		rcvr:    reflect.ValueOf(rcvr),
		methods: make(map[string]*method),
	}
	for i := 0; i < typ.NumMethod(); i++ {
		if m := methodOf(typ.Method(i)); m != nil {
			svc.methods[m.fn.Name] = m
		}
	}
	if len(svc.methods) == 0 {
		return nil, fmt.Errorf("rpc: type %s has no exported methods of suitable type", svc.name)
	}
	return svc, nil
}

// methodOf accepts
//
//	func (t *T) Name(args *Args, reply *Reply) error
//	func (t *T) Name(reply *Reply) error
//
// and returns nil for anything else.
func methodOf(fn reflect.Method) *method {
	ft := fn.Type
	if ft.NumOut() != 1 || ft.Out(0) != errorType {
		return nil
	}
	for i := 1; i < ft.NumIn(); i++ {
		if ft.In(i).Kind() != reflect.Ptr {
			return nil
		}
	}

	switch ft.NumIn() {
	case 2:
		return &method{fn: fn, reply: ft.In(1).Elem()}
	case 3:
		return &method{fn: fn, args: ft.In(1).Elem(), reply: ft.In(2).Elem()}
	default:
		return nil
	}
}

// call 通过反射调用方法；argv 对无参方法忽略
func (s *service) call(m *method, argv reflect.Value) (any, error) {
	replyv := reflect.New(m.reply)

	in := []reflect.Value{s.rcvr}
	if m.takesParams() {
		in = append(in, argv)
	}
	in = append(in, replyv)

	out := m.fn.Func.Call(in)
	if err, _ := out[0].Interface().(error); err != nil {
		return nil, err
	}
	return replyv.Elem().Interface(), nil
}
