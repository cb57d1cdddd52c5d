package amigamod

import (
	"unsafe"
)

func moduleSize(m *module) uint {
	memoryUsage := int(unsafe.Sizeof(*m))
	for _, smp := range m.samples {
		memoryUsage += len(smp.data)
	}
	memoryUsage += len(m.patterns) * int(unsafe.Sizeof(pattern{}))
	memoryUsage += len(m.positions) * int(unsafe.Sizeof(&pattern{}))

	return uint(memoryUsage)
}
