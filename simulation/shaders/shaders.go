package shaders

import (
	_ "embed"
)

//go:embed params.wgsl
var paramsWGSL string

//go:embed noise.wgsl
var noiseWGSL string

//go:embed velocity.wgsl
var velocityWGSL string

//go:embed position.wgsl
var positionWGSL string

// VelocityWGSL is the first pass of a step: damped copy of the velocity
// texture. Entry point "main".
func VelocityWGSL() string { return paramsWGSL + velocityWGSL }

// PositionWGSL is the second pass of a step: force model and integration.
// Entry point "main".
func PositionWGSL() string { return paramsWGSL + noiseWGSL + positionWGSL }
