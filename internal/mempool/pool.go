package mempool

import "sync"

// Sized pools for []float32 and []bool scratch buffers used on the
// per-frame inference paths.

var (
	float32Pools sync.Map // size class -> *sync.Pool
	boolPools    sync.Map
)

// sizeClass rounds n up to a multiple of 1024 to limit pool churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	return (n + step - 1) / step * step
}

func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]T, cls)[:n]
	}
	buf, ok := p.Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n:cap(buf)]
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetFloat32 returns a []float32 of length n from the pool. Contents are
// undefined; return it with PutFloat32.
func GetFloat32(n int) []float32 { return get[float32](&float32Pools, n) }

// PutFloat32 returns a buffer to the pool. Nil is ignored.
func PutFloat32(buf []float32) { put(&float32Pools, buf) }

// GetBool returns a zeroed []bool of length n from the pool.
func GetBool(n int) []bool {
	buf := get[bool](&boolPools, n)
	for i := range buf {
		buf[i] = false
	}
	return buf
}

// PutBool returns a buffer to the pool. Nil is ignored.
func PutBool(buf []bool) { put(&boolPools, buf) }
