// Package media identifies and decodes user-supplied media payloads.
//
// Payloads arrive as raw bytes with a declared content type. [Sniff] checks
// the bytes against the declaration with content sniffing, and [Decode]
// turns still images into an [image.Image], falling back to libvips for
// formats the pure-Go decoders cannot read (HEIC, AVIF, TIFF variants).
package media
