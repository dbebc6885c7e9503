package main

import "github.com/chazu/mote/vm"

// demoClasses is the minimal class table motectl bootstraps into every
// image it builds: one class per shape this command exercises.
type demoClasses struct {
	array     uint16
	byteArray uint16
	str       uint16
	task      uint16
	stack     uint16
}

func registerDemoClasses(program *vm.Program) demoClasses {
	return demoClasses{
		array:     program.Classes.Register(&vm.Class{Name: "DemoArray", Tag: vm.TagArray}),
		byteArray: program.Classes.Register(&vm.Class{Name: "DemoByteArray", Tag: vm.TagByteArray}),
		str:       program.Classes.Register(&vm.Class{Name: "DemoString", Tag: vm.TagString}),
		task:      program.Classes.Register(&vm.Class{Name: "DemoTask", Tag: vm.TagTask, NumSlots: 3}),
		stack:     program.Classes.Register(&vm.Class{Name: "DemoStack", Tag: vm.TagStack}),
	}
}

// buildDemoGraph allocates one object of each shape motectl demonstrates
// and returns the tagged values of the array, string, byte array, and task
// as the roots of the object graph. The stack is not a root: it is reached
// through the task's stack slot.
func buildDemoGraph(process *vm.Process, classes demoClasses, cfg *Config) ([]vm.Value, error) {
	program := process.Program()
	heap := process.Heap()

	arr := vm.NewArray(heap, program, classes.array, cfg.Demo.ArrayLen)
	for i := 0; i < cfg.Demo.ArrayLen; i++ {
		arr.AtPut(i, vm.SmallIntegerFrom(i))
	}

	content := cfg.Demo.StringContent
	if content == "" {
		content = "hello from motectl"
	}
	str, err := vm.NewInternalString(heap, program, classes.str, []byte(content))
	if err != nil {
		return nil, err
	}

	byteArrayLen := cfg.Demo.ByteArrayLen
	if byteArrayLen <= 0 {
		byteArrayLen = 8
	}
	ba, err := process.AllocateByteArray(byteArrayLen)
	if err != nil {
		return nil, err
	}

	task := vm.NewTask(heap, program, classes.task, 3)
	stack := vm.NewStack(heap, program, classes.stack, cfg.Demo.StackLen)
	task.AttachStack(heap, stack)

	return []vm.Value{
		heap.TaggedValueOf(arr),
		heap.TaggedValueOf(str),
		heap.TaggedValueOf(ba),
		heap.TaggedValueOf(task),
	}, nil
}
