// Package srt holds the shared data model of the sit-to-rise analysis
// pipeline: landmark identifiers, keypoints, poses, support types and the
// angle geometry every per-frame metric is built on.
//
// Stage packages (sampler, pose, phase, support, scoring, feedback) import
// srt; srt imports none of them. The analysis package is the composition
// root that wires the stages into a run.
package srt
