package softgpu

import "render-toolkit/gpu"

// Backend hands out a fresh software device for every CreateDevice call
// and keeps the history so callers can inspect devices after a restore.
type Backend struct {
	Devices []*Device

	failCreate int
}

// FailCreate makes the next n CreateDevice calls fail.
func (b *Backend) FailCreate(n int) { b.failCreate = n }

func (b *Backend) CreateDevice() (gpu.Device, gpu.Context, error) {
	if b.failCreate > 0 {
		b.failCreate--
		return nil, nil, gpu.NewError("CreateDevice", gpu.CodeUnsupported, nil)
	}
	dev, ctx := New()
	b.Devices = append(b.Devices, dev)
	return dev, ctx, nil
}

// Current returns the most recently created device, or nil.
func (b *Backend) Current() *Device {
	if len(b.Devices) == 0 {
		return nil
	}
	return b.Devices[len(b.Devices)-1]
}
