package native

import (
	"cometweb/internal/interop"
	"cometweb/internal/render/hittest"
	"cometweb/internal/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// cached holds the unit mesh and material for one kind.
type cached struct {
	mesh rl.Mesh
	mtl  rl.Material
	// offset shifts the mesh in model space so the primitive's position is its center.
	offset [3]float32
}

// meshes maps kinds to unit meshes. Meshes are created on first use so GPU
// resources are allocated after the window/OpenGL context exists.
type meshes struct {
	cache    map[scene.Kind]cached
	shader   rl.Shader
	viewPos  [3]float32
	lightDir [3]float32
}

func newMeshes() *meshes {
	return &meshes{
		cache:    make(map[scene.Kind]cached),
		lightDir: [3]float32{0.5, 1, 0.5},
	}
}

const (
	sphereRings     = 16
	sphereSlices    = 16
	cylinderSlices  = 16
	planeResolution = 1
)

var (
	baseColor   = rl.NewColor(128, 128, 128, 255)
	hoverColor  = rl.NewColor(170, 170, 120, 255)
	selectColor = rl.NewColor(230, 170, 60, 255)
)

// ensure creates the unit mesh for kind: 1x1x1 box, diameter 1 sphere, diameter 1
// height 1 cylinder, 1x1 plane. Unknown kinds report false.
func (m *meshes) ensure(kind scene.Kind) (cached, bool) {
	if c, ok := m.cache[kind]; ok {
		return c, true
	}
	var c cached
	switch kind {
	case scene.KindBox, scene.KindCube:
		c.mesh = rl.GenMeshCube(1, 1, 1)
	case scene.KindSphere:
		c.mesh = rl.GenMeshSphere(0.5, sphereRings, sphereSlices)
	case scene.KindCylinder:
		// Raylib cylinder: base at Y=0, top at Y=height.
		c.mesh = rl.GenMeshCylinder(0.5, 1, cylinderSlices)
		c.offset = [3]float32{0, -0.5, 0}
	case scene.KindPlane:
		c.mesh = rl.GenMeshPlane(1, 1, planeResolution, planeResolution)
	default:
		return c, false
	}
	c.mtl = rl.LoadMaterialDefault()
	if rl.IsShaderValid(m.litShader()) {
		c.mtl.Shader = m.shader
	}
	m.cache[kind] = c
	return c, true
}

func (m *meshes) litShader() rl.Shader {
	if !rl.IsShaderValid(m.shader) {
		m.shader = rl.LoadShaderFromMemory(litVS, litFS)
	}
	return m.shader
}

// setView records the camera position for this frame's lighting.
func (m *meshes) setView(viewPos [3]float32) {
	m.viewPos = viewPos
}

// draw renders obj with the given tint. Must run between BeginMode3D and EndMode3D.
func (m *meshes) draw(obj interop.Object, tint rl.Color) {
	c, ok := m.ensure(scene.Kind(obj.Kind))
	if !ok {
		return
	}
	m.setUniforms(c.mtl.Shader)
	if albedo := c.mtl.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Color = tint
	}
	rl.DrawMesh(c.mesh, c.mtl, transform(obj, c.offset))
}

// transform is offset, then scale to the primitive's size, then rotation, then translation.
func transform(obj interop.Object, offset [3]float32) rl.Matrix {
	size := obj.Primitive().Size()
	sx, sy, sz := float32(size[0]), float32(size[1]), float32(size[2])
	if scene.Kind(obj.Kind) == scene.KindPlane {
		sy = 1
	}
	t := rl.MatrixTranslate(offset[0], offset[1], offset[2])
	t = rl.MatrixMultiply(t, rl.MatrixScale(sx, sy, sz))
	t = rl.MatrixMultiply(t, rotationMatrix(hittest.Rotation(obj.Rotation)))
	return rl.MatrixMultiply(t, rl.MatrixTranslate(float32(obj.Position[0]), float32(obj.Position[1]), float32(obj.Position[2])))
}

// rotationMatrix lays a row-major 3x3 rotation into raylib's matrix fields (Mrow+4*col).
func rotationMatrix(r hittest.Mat3) rl.Matrix {
	return rl.Matrix{
		M0: r[0][0], M4: r[0][1], M8: r[0][2],
		M1: r[1][0], M5: r[1][1], M9: r[1][2],
		M2: r[2][0], M6: r[2][1], M10: r[2][2],
		M15: 1,
	}
}

// unload frees GPU resources. Must run before the window closes.
func (m *meshes) unload() {
	for k, c := range m.cache {
		rl.UnloadMesh(&c.mesh)
		delete(m.cache, k)
	}
	if rl.IsShaderValid(m.shader) {
		rl.UnloadShader(m.shader)
	}
}

var (
	ambient          = [4]float32{0.2, 0.22, 0.26, 1.0}
	lightColor       = [3]float32{1.0, 0.98, 0.95}
	lightIntensity   = float32(0.75)
	specularPower    = float32(48.0)
	specularStrength = float32(0.35)
)

// setUniforms sets view, light and specular uniforms (cgo-safe: local arrays).
func (m *meshes) setUniforms(shader rl.Shader) {
	if !rl.IsShaderValid(shader) {
		return
	}
	viewPos := m.viewPos
	lightDir := m.lightDir
	amb := ambient
	col := lightColor
	if loc := rl.GetShaderLocation(shader, "viewPos"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, viewPos[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightDir"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, lightDir[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "ambient"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, amb[:], rl.ShaderUniformVec4, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightColor"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, col[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "lightIntensity"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{lightIntensity}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "specularPower"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{specularPower}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "specularStrength"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{specularStrength}, rl.ShaderUniformFloat)
	}
}

// Directional light plus ambient and a Blinn-Phong highlight.
const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 matProjection;
uniform mat4 matView;
uniform mat4 matModel;
out vec3 fragPosition;
out vec3 fragNormal;
void main() {
  vec4 worldPos = matModel * vec4(vertexPosition, 1.0);
  fragPosition = worldPos.xyz;
  fragNormal = normalize(transpose(inverse(mat3(matModel))) * vertexNormal);
  gl_Position = matProjection * matView * worldPos;
}
`
	litFS = `#version 330
in vec3 fragPosition;
in vec3 fragNormal;
uniform vec4 colDiffuse;
uniform vec3 viewPos;
uniform vec3 lightDir;
uniform vec4 ambient;
uniform vec3 lightColor;
uniform float lightIntensity;
uniform float specularPower;
uniform float specularStrength;
out vec4 finalColor;
void main() {
  vec4 tint = colDiffuse;
  vec3 N = normalize(fragNormal);
  vec3 L = normalize(lightDir);
  vec3 V = normalize(viewPos - fragPosition);
  float NdotL = max(dot(N, L), 0.0);
  vec3 diffuse = tint.rgb * NdotL * lightColor * lightIntensity;
  vec3 amb = ambient.rgb * tint.rgb;
  vec3 H = normalize(L + V);
  float spec = pow(max(dot(N, H), 0.0), specularPower) * specularStrength;
  vec3 specular = lightColor * spec * (NdotL > 0.0 ? 1.0 : 0.0);
  finalColor = vec4(amb + diffuse + specular, tint.a);
}
`
)
