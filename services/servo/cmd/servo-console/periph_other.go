//go:build !linux || tinygo

package main

import (
	"errors"

	"signalbox-go/services/servo/internal/core"
)

func openPeriph([]int) (core.Factory, error) {
	return nil, errors.New("periph hardware needs linux")
}
