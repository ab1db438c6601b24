//go:build linux && !tinygo

package main

import (
	"signalbox-go/services/servo/internal/core"
	"signalbox-go/services/servo/internal/platform"
)

func openPeriph(reserved []int) (core.Factory, error) {
	p, err := platform.NewPeriph(platform.PiBoard(reserved...))
	if err != nil {
		return nil, err
	}
	return p, nil
}
