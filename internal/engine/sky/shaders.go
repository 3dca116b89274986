package sky

// vertexShader emits one triangle covering the screen at the far plane.
const vertexShader = `#version 410 core

out vec2 vNDC;

void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2) * 2.0 - 1.0;
    vNDC = pos;
    gl_Position = vec4(pos, 1.0, 1.0);
}
`

// fragmentShader looks up the lat-long LUT along the view ray, then tone
// maps and sRGB encodes the result.
const fragmentShader = `#version 410 core

in vec2 vNDC;
out vec4 FragColor;

uniform mat4 uInvViewProj;
uniform sampler2D uLUT;
uniform float uExposure;

const float PI = 3.14159265358979;

vec3 encodeSRGB(vec3 c) {
    vec3 lo = c * 12.92;
    vec3 hi = 1.055 * pow(c, vec3(1.0 / 2.4)) - 0.055;
    return mix(lo, hi, step(vec3(0.0031308), c));
}

void main() {
    vec4 far = uInvViewProj * vec4(vNDC, 1.0, 1.0);
    vec3 dir = normalize(far.xyz / far.w);

    float azimuth = atan(dir.x, dir.z);
    float elevation = asin(clamp(dir.y, -1.0, 1.0));
    vec2 uv = vec2(fract(azimuth / (2.0 * PI)), 0.5 - elevation / PI);

    vec3 radiance = max(texture(uLUT, uv).rgb, vec3(0.0));
    vec3 mapped = 1.0 - exp(-radiance * uExposure);
    FragColor = vec4(encodeSRGB(mapped), 1.0);
}
`

var uniformNames = []string{"uInvViewProj", "uLUT", "uExposure"}
