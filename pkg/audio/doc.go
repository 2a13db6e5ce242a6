// Package audio defines the PCM sample formats shared by the decoder,
// scheduler, export, and visualizer layers.
package audio
