package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// program is a linked vertex/pixel shader pair. Uniform block i is bound
// to binding point i and sampler uniforms to texture units in declaration
// order, so constant buffer and resource slots address them by index.
type program struct {
	id uint32
	vs *shader
	ps *shader
}

func compileShader(src []byte, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(string(src) + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func linkProgram(vs, ps *shader) (*program, error) {
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs.id)
	gl.AttachShader(prog, ps.id)
	gl.LinkProgram(prog)
	gl.DetachShader(prog, vs.id)
	gl.DetachShader(prog, ps.id)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return nil, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}

	var blocks int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_BLOCKS, &blocks)
	for i := range uint32(blocks) {
		gl.UniformBlockBinding(prog, i, i)
	}

	gl.UseProgram(prog)
	var uniforms int32
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &uniforms)
	unit := int32(0)
	name := make([]uint8, 128)
	for i := range uint32(uniforms) {
		var size, length int32
		var xtype uint32
		gl.GetActiveUniform(prog, i, int32(len(name)), &length, &size, &xtype, &name[0])
		if !isSampler(xtype) {
			continue
		}
		loc := gl.GetUniformLocation(prog, gl.Str(string(name[:length])+"\x00"))
		gl.Uniform1i(loc, unit)
		unit++
	}
	gl.UseProgram(0)

	return &program{id: prog, vs: vs, ps: ps}, nil
}

func isSampler(xtype uint32) bool {
	switch xtype {
	case gl.SAMPLER_2D, gl.SAMPLER_2D_SHADOW, gl.INT_SAMPLER_2D, gl.UNSIGNED_INT_SAMPLER_2D:
		return true
	}
	return false
}

func (p *program) delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}
