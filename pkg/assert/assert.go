package assert

import (
	"fmt"
	"reflect"
	"runtime"
)

// NotNil panics when v is nil, including typed nil pointers inside interfaces.
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: unexpected nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("assert: unexpected nil %T", v))
		}
	}
}

// NotCircular panics when the calling function already appears further up the
// current goroutine's stack. Default* singleton constructors call it before
// sync.Once so a dependency cycle fails loudly instead of deadlocking.
func NotCircular() {
	pcs := make([]uintptr, 128)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	first, more := frames.Next()
	for more {
		var f runtime.Frame
		f, more = frames.Next()
		if f.Function == first.Function {
			panic("assert: circular initialisation in " + first.Function)
		}
	}
}
