//go:build rknn

package main

import (
	"github.com/swdee/go-rknnlite"

	"github.com/swdee/go-lpkit"
	"github.com/swdee/go-lpkit/model"
	"github.com/swdee/go-lpkit/model/rknn"
)

func init() {
	backends["rknn"] = func(cfg lpkit.BackendConfig) (model.Model, error) {
		return rknn.New(rknnlite.CoreMask(cfg.RKNNCore)), nil
	}
}
