// Package ffmpeg runs the two ffmpeg invocations reelcast needs: lossless
// concat-demuxer joins of rendered segments and lavfi synthesis of
// placeholder clips.
package ffmpeg
