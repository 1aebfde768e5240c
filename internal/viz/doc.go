// Package viz renders simulations in the terminal: a braille-dot canvas
// for the particle cloud, asciigraph plots for the sampled observables,
// and a bubbletea program tying both into a live dashboard.
package viz
