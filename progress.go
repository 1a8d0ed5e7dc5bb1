// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"io"

	"github.com/524D/fiannotate/internal/fia"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// progressBars shows a progress bar for each annotation stage
type progressBars struct {
	out io.Writer
	bar *pb.ProgressBar
}

func newProgressBars(out io.Writer) *progressBars {
	return &progressBars{out: out}
}

// update is an fia.ProgressFunc. A new bar is started when a stage begins.
func (p *progressBars) update(stage fia.Stage, done, total int) {
	if done == 0 || p.bar == nil {
		p.finish()
		p.bar = pb.New(total).Prefix(stage.String() + " ")
		p.bar.Output = p.out
		p.bar.ShowSpeed = false
		p.bar.Start()
	}
	p.bar.Set(done)
}

// finish completes the current bar, if any
func (p *progressBars) finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
