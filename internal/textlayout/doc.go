// Package textlayout lays out and draws text with inline bold markup.
//
// Text wrapped in a pair of asterisks ("*like this*") is drawn in the bold
// weight. Lines are wrapped greedily on spaces, aligned left, centered or
// right of an anchor, and drawn with their vertical middle on the anchor y.
package textlayout
