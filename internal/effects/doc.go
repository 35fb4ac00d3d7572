// Package effects implements the per-slot pixel effects applied to media
// before compositing: blur, brightness/contrast and noise.
//
// Effects always run in the same order and each step is skipped when its
// parameter is neutral:
//
//  1. Blur, when Blur > 0. Gaussian blur with sigma equal to the radius.
//  2. Brightness and contrast, when either is non-zero. Contrast is applied
//     first: v' = (v-128)*(contrast+100)/100 + 128, then
//     v'' = clamp(v' + brightness/100*255).
//  3. Noise, when Noise > 0. One uniform draw in [-i/2, i/2] per pixel with
//     i = noise*2.55, added to R, G and B alike.
//
// Alpha is never modified. Parameter ranges are checked by [Validate], not by
// [Apply].
package effects
