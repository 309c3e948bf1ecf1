// Package audio converts synthesized speech into the stereo MP3 AirPlay
// expects and plays files through the system audio output, where the
// routing application picks them up.
package audio
