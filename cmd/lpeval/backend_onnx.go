package main

import (
	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/model/onnx"
)

func newONNX(cfg lpkit.BackendConfig) (model.Model, error) {
	return onnx.New(cfg.ONNXLibrary)
}
