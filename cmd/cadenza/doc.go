// Command cadenza composes long-form audio by generating clips through a
// local MusicGPT backend and assembling them into a single track.
package main
