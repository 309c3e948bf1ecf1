// Package airfoil controls the Airfoil audio router through osascript:
// choosing the audio source, connecting and disconnecting AirPlay speakers,
// setting their volume and observing their connection state.
package airfoil
