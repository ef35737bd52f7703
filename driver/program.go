package driver

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/importglsl/glslpp"
)

const fullscreenVert = `#version 330 core
in vec2 pos;
void main() {
	gl_Position = vec4(pos, 0.0, 1.0);
}
` + "\x00"

// Uniform is a located, typed active uniform as GL reports it.
type Uniform struct {
	Name     string
	Type     uint32
	Location int32
}

// Program links a compiled glsl.Shader's output against the driver's
// fullscreen-quad vertex stage.
type Program struct {
	id       uint32
	vertLoc  uint32
	vao, vbo uint32
	uniforms map[string]Uniform
	compiled string
}

// NewProgram compiles and links compiledSource (the output of
// glsl.Shader.Compile) as the fragment stage.
func NewProgram(compiledSource string) (*Program, error) {
	vs, err := compileStage(gl.VERTEX_SHADER, fullscreenVert)
	if err != nil {
		return nil, glsl.Fault{Code: glsl.CodeProgram, Reason: fmt.Sprintf("vertex stage: %v", err)}
	}
	defer gl.DeleteShader(vs)

	fs, err := compileStage(gl.FRAGMENT_SHADER, compiledSource+"\x00")
	if err != nil {
		return nil, glsl.Fault{Code: glsl.CodeProgram, Reason: fmt.Sprintf("fragment stage: %v", err)}
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return nil, glsl.Fault{Code: glsl.CodeProgram, Reason: "link failed", Actual: log}
	}

	p := &Program{
		id:       prog,
		vertLoc:  uint32(gl.GetAttribLocation(prog, gl.Str("pos\x00"))),
		compiled: compiledSource,
	}
	p.vao, p.vbo = createFullscreenQuad()
	p.uniforms = listUniforms(prog)
	return p, nil
}

func compileStage(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csource, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csource, nil)
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
		return 0, fmt.Errorf("%s", log)
	}
	return shader, nil
}

func createFullscreenQuad() (vao, vbo uint32) {
	verts := []float32{
		-1, -1, 1, -1, -1, 1,
		-1, 1, 1, -1, 1, 1,
	}
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	return vao, vbo
}

// listUniforms reports every active uniform in program with the GL type
// enum GL reports for it; uniforms are not filtered by type. Array
// uniforms are listed once per located element (name[0], name[1], ...).
func listUniforms(program uint32) map[string]Uniform {
	var numUniforms, bufSize int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &numUniforms)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &bufSize)

	uniforms := map[string]Uniform{}
	for i := uint32(0); i < uint32(numUniforms); i++ {
		var length, size int32
		var typ uint32
		nameBuf := strings.Repeat("\x00", int(bufSize))
		gl.GetActiveUniform(program, i, bufSize, &length, &size, &typ, gl.Str(nameBuf))
		name := strings.SplitN(nameBuf, "\x00", 2)[0]

		if strings.HasSuffix(name, "[0]") {
			base := strings.TrimSuffix(name, "[0]")
			for j := 0; ; j++ {
				elem := fmt.Sprintf("%s[%d]", base, j)
				loc := gl.GetUniformLocation(program, gl.Str(elem+"\x00"))
				if loc == -1 {
					break
				}
				uniforms[elem] = Uniform{Name: elem, Type: typ, Location: loc}
			}
			continue
		}
		uniforms[name] = Uniform{Name: name, Type: typ, Location: gl.GetUniformLocation(program, gl.Str(nameBuf))}
	}
	return uniforms
}

// Draw binds the program and the fullscreen quad and issues the draw
// call. The caller is responsible for binding the render target first.
func (p *Program) Draw() {
	gl.UseProgram(p.id)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.EnableVertexAttribArray(p.vertLoc)
	gl.VertexAttribPointer(p.vertLoc, 2, gl.FLOAT, false, 0, nil)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

// Uniforms returns the program's active, located uniforms by name.
func (p *Program) Uniforms() map[string]Uniform {
	return p.uniforms
}

// Close releases the program's GL objects.
func (p *Program) Close() {
	gl.DeleteVertexArrays(1, &p.vao)
	gl.DeleteBuffers(1, &p.vbo)
	gl.DeleteProgram(p.id)
}
