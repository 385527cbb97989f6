// Package capture implements the acquisition-to-persistence pipeline for a
// structured-light 3D camera: a paced capture loop that resolves and
// normalizes color channels, filters point clouds, and hands completed
// frames to a pool of writer workers through a bounded drop-on-full queue.
//
// Concurrency model: one capture goroutine (the Loop) plus N writer
// goroutines (Writers). The BufferPool and Stats are the only state shared
// across that boundary; buffer ownership transfers to a worker with its
// Job and returns to the pool when persistence finishes.
package capture
