package gpu

import "unsafe"

// AsBytes views a slice of plain vertex/index structs as raw bytes. The
// result aliases s; nothing is copied.
func AsBytes[V any](s []V) []byte {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0])) * len(s)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), size)
}

// FromBytes is the inverse of AsBytes. b must be suitably aligned for V,
// which holds for anything produced by AsBytes. Trailing bytes that do not
// form a whole V are ignored.
func FromBytes[V any](b []byte) []V {
	size := SizeOf[V]()
	if size == 0 || len(b) < size {
		return nil
	}
	return unsafe.Slice((*V)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/size)
}

// SizeOf returns the struct size of V in bytes.
func SizeOf[V any]() int {
	var zero V
	return int(unsafe.Sizeof(zero))
}
