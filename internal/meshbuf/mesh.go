// Package meshbuf holds the CPU side of an indexed mesh together with the
// GPU buffers created from it.
package meshbuf

import (
	"errors"
	"fmt"

	"render-toolkit/gpu"
)

var (
	ErrNoData     = errors.New("vertex or index data absent")
	ErrZeroCount  = errors.New("zero vertex or index count")
	ErrShortData  = errors.New("data shorter than declared counts")
	ErrIndexRange = errors.New("index out of vertex range")
)

// Mesh is indexed geometry with opaque vertex records of StructSize bytes.
// The CPU data is kept for the lifetime of the mesh so the GPU buffers can
// be rebuilt at any time.
type Mesh struct {
	Vertices    []byte
	Indices     []uint32
	StructSize  int
	VertexCount int
	IndexCount  int
	Topology    gpu.Topology

	VertexBuffer gpu.Ptr[gpu.Buffer]
	IndexBuffer  gpu.Ptr[gpu.Buffer]
}

// New validates the arguments and returns a mesh owning copies of the
// first vertexCount records and indexCount indices.
func New(vertices []byte, indices []uint32, structSize, vertexCount, indexCount int) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, ErrNoData
	}
	if structSize <= 0 || vertexCount <= 0 || indexCount <= 0 {
		return nil, ErrZeroCount
	}
	if len(vertices) < structSize*vertexCount || len(indices) < indexCount {
		return nil, fmt.Errorf("%w: %d bytes for %d×%d, %d indices for %d",
			ErrShortData, len(vertices), vertexCount, structSize, len(indices), indexCount)
	}
	for _, idx := range indices[:indexCount] {
		if int(idx) >= vertexCount {
			return nil, fmt.Errorf("%w: %d >= %d", ErrIndexRange, idx, vertexCount)
		}
	}
	return &Mesh{
		Vertices:    append([]byte(nil), vertices[:structSize*vertexCount]...),
		Indices:     append([]uint32(nil), indices[:indexCount]...),
		StructSize:  structSize,
		VertexCount: vertexCount,
		IndexCount:  indexCount,
		Topology:    gpu.TopologyTriangleList,
	}, nil
}

// HasBuffers reports whether both GPU buffers exist.
func (m *Mesh) HasBuffers() bool {
	return !m.VertexBuffer.IsNull() && !m.IndexBuffer.IsNull()
}

// CreateBuffers (re)uploads the full CPU data into new static buffers.
// On failure no buffer is kept.
func (m *Mesh) CreateBuffers(dev gpu.Device) error {
	m.DestroyBuffers()

	vb, err := dev.CreateBuffer(&gpu.BufferDesc{
		ByteWidth:    len(m.Vertices),
		StructStride: m.StructSize,
		ResType:      gpu.BindVertexBuffer,
	}, &gpu.ResourceData{Data: m.Vertices})
	if err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	ib, err := dev.CreateBuffer(&gpu.BufferDesc{
		ByteWidth:    len(m.Indices) * 4,
		StructStride: 4,
		ResType:      gpu.BindIndexBuffer,
	}, &gpu.ResourceData{Data: gpu.AsBytes(m.Indices)})
	if err != nil {
		vb.Reset()
		return fmt.Errorf("index buffer: %w", err)
	}
	m.VertexBuffer = vb
	m.IndexBuffer = ib
	return nil
}

// DestroyBuffers releases the GPU buffers and keeps the CPU data.
func (m *Mesh) DestroyBuffers() {
	m.VertexBuffer.Reset()
	m.IndexBuffer.Reset()
}

// Draw binds the buffers and issues one indexed draw. It does nothing and
// returns false when the buffers are missing.
func (m *Mesh) Draw(ctx gpu.Context) bool {
	if !m.HasBuffers() {
		return false
	}
	ctx.SetPrimitiveTopology(m.Topology)
	ctx.SetVertexBuffers(0, []gpu.Buffer{m.VertexBuffer.Get()}, []int{m.StructSize}, []int{0})
	ctx.SetIndexBuffer(m.IndexBuffer.Get(), gpu.IndexUint32, 0)
	ctx.DrawIndexed(m.IndexCount, 0, 0)
	return true
}
