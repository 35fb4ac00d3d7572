// Package compositor renders the still-image templates and the transparent
// overlay rasters the video pipeline lays over decoded frames.
//
// All templates share a 1080x1920 portrait canvas. Metropoles draws one
// media slot full-bleed under a black gradient with the logo and subtitle in
// the footer. Choquei draws two slots side by side between a white header
// (logo, title, subtitle) and a white footer (footer text).
package compositor
