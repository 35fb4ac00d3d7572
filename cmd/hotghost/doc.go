// Command hotghost runs the hotghost engine from the command line.
//
// Usage:
//
//	hotghost text "Oferta imperdível"
//	hotghost image -job job.yaml -o out.png
//	hotghost video -job job.yaml -o out.mp4
//	hotghost templates [-family video]
//	hotghost history [-limit 20]
//
// Image and video jobs are YAML files:
//
//	template: choquei
//	inputs:
//	  left: photos/a.jpg
//	  right: photos/b.jpg
//	texts:
//	  title: "*URGENTE*"
//	  subtitle: Veja o que aconteceu
//	effects:
//	  right:
//	    enabled: true
//	    brightness: 15
//
// Input paths are relative to the job file. Effect fields that are left
// out keep their defaults. Output is written atomically, so a failed or
// interrupted run never leaves a partial file behind. When stderr is a
// terminal a progress bar is drawn during video runs.
//
// Environment:
//
//   - ASSETS_DIR: bundled logos, texture, intro still, closing video and fonts (default: ./assets)
//   - WORK_DIR: transcoder workspace (default: $TMPDIR/hotghost-cli)
//   - FFMPEG_PATH, FFPROBE_PATH: explicit binaries; empty means look on PATH
//   - DATABASE_DIR: when set, runs are recorded in the history database
//     and the history command reads it
package main
